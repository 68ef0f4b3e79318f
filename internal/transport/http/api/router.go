package apihttp

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"paperbroker/internal/broker"
	"paperbroker/internal/logger"
	"paperbroker/internal/store/journal"

	"github.com/gin-gonic/gin"
)

// Router exposes the order engine over /api/v1.
type Router struct {
	svc    *broker.Service
	events *journal.Journal
}

// NewRouter builds the API router. The journal may be nil; the journal
// endpoint then reports unavailable.
func NewRouter(svc *broker.Service, events *journal.Journal) *Router {
	return &Router{svc: svc, events: events}
}

func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.POST("/accounts", r.handleOpenAccount)
	group.GET("/accounts/:account_id", r.handleGetAccount)
	group.GET("/accounts/:account_id/positions", r.handleListPositions)
	group.POST("/accounts/:account_id/orders", r.handlePlaceOrder)
	group.GET("/accounts/:account_id/orders", r.handleListOrders)
	group.GET("/accounts/:account_id/orders/:order_id", r.handleGetOrder)
	group.DELETE("/accounts/:account_id/orders/:order_id", r.handleCancelOrder)
	group.GET("/orders/:order_id/executions", r.handleListExecutions)
	group.GET("/quotes/:symbol", r.handleGetQuote)
	group.GET("/journal", r.handleJournal)
}

func (r *Router) handleOpenAccount(c *gin.Context) {
	var req OpenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	acct, err := r.svc.OpenAccount(c.Request.Context(), req.Name, req.InitialCapital)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, accountResponse(acct))
}

func (r *Router) handleGetAccount(c *gin.Context) {
	acct, err := r.svc.GetAccount(c.Request.Context(), c.Param("account_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accountResponse(acct))
}

func (r *Router) handleListPositions(c *gin.Context) {
	accountID := c.Param("account_id")
	if _, err := r.svc.GetAccount(c.Request.Context(), accountID); err != nil {
		respondError(c, err)
		return
	}
	positions, err := r.svc.GetPositions(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]PositionResponse, 0, len(positions))
	for i := range positions {
		out = append(out, positionResponse(&positions[i]))
	}
	c.JSON(http.StatusOK, gin.H{"positions": out})
}

func (r *Router) handlePlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	order, err := r.svc.PlaceOrder(c.Request.Context(), c.Param("account_id"), broker.PlaceOrderRequest{
		Symbol:      req.Symbol,
		Side:        broker.OrderSide(strings.ToLower(strings.TrimSpace(req.Side))),
		Type:        broker.OrderType(strings.ToLower(strings.TrimSpace(req.Type))),
		Quantity:    req.Quantity,
		LimitPrice:  req.LimitPrice,
		StopPrice:   req.StopPrice,
		TimeInForce: broker.TimeInForce(strings.ToLower(strings.TrimSpace(req.TimeInForce))),
		ClientMeta:  req.ClientMeta,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderResponse(order))
}

func (r *Router) handleListOrders(c *gin.Context) {
	var status *broker.OrderStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		st := broker.OrderStatus(strings.ToLower(raw))
		status = &st
	}
	orders, err := r.svc.GetOrders(c.Request.Context(), c.Param("account_id"), status)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, orderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

func (r *Router) handleGetOrder(c *gin.Context) {
	order, err := r.svc.GetOrder(c.Request.Context(), c.Param("account_id"), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

func (r *Router) handleCancelOrder(c *gin.Context) {
	order, err := r.svc.CancelOrder(c.Request.Context(), c.Param("account_id"), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

func (r *Router) handleListExecutions(c *gin.Context) {
	execs, err := r.svc.GetExecutions(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]ExecutionResponse, 0, len(execs))
	for i := range execs {
		out = append(out, executionResponse(&execs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"executions": out})
}

func (r *Router) handleGetQuote(c *gin.Context) {
	quote, err := r.svc.GetQuote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		respondError(c, err)
		return
	}
	if quote == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol"})
		return
	}
	c.JSON(http.StatusOK, quoteResponse(quote))
}

func (r *Router) handleJournal(c *gin.Context) {
	if r.events == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "journal is not enabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	events, err := r.events.ListEvents(c.Request.Context(), journal.EventQuery{
		AccountID: c.Query("account_id"),
		OrderID:   c.Query("order_id"),
		Kind:      c.Query("kind"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		logger.Errorf("[api] journal list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// respondError translates engine errors into HTTP statuses. Business
// rejections keep their message; unexpected failures are logged and
// masked.
func respondError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("[api] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, broker.ErrOrderNotFound),
		errors.Is(err, broker.ErrAccountNotFound),
		errors.Is(err, broker.ErrPositionNotFound):
		return http.StatusNotFound
	case errors.Is(err, broker.ErrInvalidStateTransition):
		return http.StatusConflict
	case errors.Is(err, broker.ErrInsufficientFunds),
		errors.Is(err, broker.ErrInsufficientShares):
		return http.StatusUnprocessableEntity
	case errors.Is(err, broker.ErrInvalidSymbol),
		errors.Is(err, broker.ErrInvalidQuantity),
		errors.Is(err, broker.ErrMissingPrice):
		return http.StatusBadRequest
	case errors.Is(err, broker.ErrQuoteUnavailable):
		return http.StatusBadGateway
	}
	var vErr *broker.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"paperbroker/internal/logger"
	"paperbroker/internal/market"
	"paperbroker/internal/pkg/symbol"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlaceOrderRequest carries everything a caller may say about a new
// order. Optional prices are pointers; which ones must or must not be
// set depends on Type and is enforced before anything is reserved.
type PlaceOrderRequest struct {
	Symbol      string
	Side        OrderSide
	Type        OrderType
	Quantity    decimal.Decimal
	LimitPrice  *decimal.Decimal
	StopPrice   *decimal.Decimal
	TimeInForce TimeInForce
	ClientMeta  json.RawMessage
}

// Service is the order lifecycle engine: placement, cancellation,
// fills, and the reads the API exposes. All state mutation runs inside
// store transactions under row locks; the journal and notifier are
// strictly post-commit.
type Service struct {
	store      Store
	quotes     market.Provider
	venue      string
	defaultTIF TimeInForce
	nowFn      func() time.Time
	events     EventSink
	notifier   Notifier
}

type ServiceOption func(*Service)

func WithVenue(venue string) ServiceOption {
	return func(s *Service) {
		if v := strings.TrimSpace(venue); v != "" {
			s.venue = v
		}
	}
}

func WithDefaultTimeInForce(tif TimeInForce) ServiceOption {
	return func(s *Service) {
		if tif.Valid() {
			s.defaultTIF = tif
		}
	}
}

func WithEventSink(sink EventSink) ServiceOption {
	return func(s *Service) { s.events = sink }
}

func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

func WithClock(nowFn func() time.Time) ServiceOption {
	return func(s *Service) {
		if nowFn != nil {
			s.nowFn = nowFn
		}
	}
}

func NewService(store Store, quotes market.Provider, opts ...ServiceOption) *Service {
	s := &Service{
		store:      store,
		quotes:     quotes,
		venue:      "SIM",
		defaultTIF: TIFGTC,
		nowFn:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// PlaceOrder validates the request, reserves capital or shares, and
// persists the order in one transaction, so the checks and the debit
// cannot be split by a concurrent call. Market orders additionally
// fill in full inside that same transaction.
func (s *Service) PlaceOrder(ctx context.Context, accountID string, req PlaceOrderRequest) (*Order, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, fmt.Errorf("empty account id: %w", ErrAccountNotFound)
	}

	order, err := s.buildOrder(accountID, req)
	if err != nil {
		return nil, err
	}
	quote, err := s.lookupQuote(ctx, order.Symbol)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, fmt.Errorf("no quote for %q: %w", order.Symbol, ErrInvalidSymbol)
	}

	var exec *Execution
	err = s.store.WithinTx(ctx, func(tx Tx) error {
		if order.Type == TypeMarket && order.Side == SideSell {
			// The synchronous fill below credits the account; take its
			// lock before the position lock so acquisition order stays
			// Account -> Position across the codebase.
			acct, err := tx.AccountForUpdate(ctx, order.AccountID)
			if err != nil {
				return err
			}
			if acct == nil {
				return fmt.Errorf("account %s: %w", order.AccountID, ErrAccountNotFound)
			}
		}
		if err := s.reserve(ctx, tx, order, quote); err != nil {
			return err
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		if order.Type != TypeMarket {
			return nil
		}
		now := s.nowFn()
		order.Status = StatusSubmitted
		order.SubmittedAt = &now
		price := quote.Ask
		if order.Side == SideSell {
			price = quote.Bid
		}
		filled, err := s.applyFill(ctx, tx, order, price, order.Quantity)
		if err != nil {
			return err
		}
		exec = filled
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, "order_placed", map[string]any{
		"account_id": order.AccountID,
		"order_id":   order.ID,
		"symbol":     order.Symbol,
		"side":       string(order.Side),
		"type":       string(order.Type),
		"quantity":   order.Quantity.String(),
		"status":     string(order.Status),
	})
	if exec != nil {
		s.afterFill(ctx, order, exec)
	}
	return order, nil
}

// CancelOrder releases the order's remaining reservation and moves it
// to cancelled. Cancelling a terminal order is an invalid transition;
// nothing is released twice.
func (s *Service) CancelOrder(ctx context.Context, accountID, orderID string) (*Order, error) {
	var cancelled *Order
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		o, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil || o.AccountID != accountID {
			return fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
		}
		if !o.CanCancel() {
			return fmt.Errorf("cancel order %s in status %s: %w", orderID, o.Status, ErrInvalidStateTransition)
		}
		if err := s.releaseReservation(ctx, tx, o); err != nil {
			return err
		}
		now := s.nowFn()
		o.Status = StatusCancelled
		o.CancelledAt = &now
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}
		cancelled = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, "order_cancelled", map[string]any{
		"account_id": cancelled.AccountID,
		"order_id":   cancelled.ID,
		"symbol":     cancelled.Symbol,
		"side":       string(cancelled.Side),
		"remaining":  cancelled.Remaining().String(),
	})
	s.notify(fmt.Sprintf("❎ cancelled %s %s %s (filled %s of %s)",
		cancelled.Side, cancelled.Symbol, cancelled.Quantity, cancelled.FilledQuantity, cancelled.Quantity))
	return cancelled, nil
}

// GetOrders returns the account's orders, newest first.
func (s *Service) GetOrders(ctx context.Context, accountID string, status *OrderStatus) ([]Order, error) {
	if status != nil && !status.Valid() {
		return nil, invalidField("status", fmt.Sprintf("unknown status %q", *status))
	}
	return s.store.ListOrders(ctx, accountID, status)
}

func (s *Service) GetOrder(ctx context.Context, accountID, orderID string) (*Order, error) {
	o, err := s.store.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil || o.AccountID != accountID {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
	}
	return o, nil
}

// GetExecutions returns an order's fills, newest first.
func (s *Service) GetExecutions(ctx context.Context, orderID string) ([]Execution, error) {
	o, err := s.store.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
	}
	return s.store.ListExecutions(ctx, orderID)
}

// OpenAccount creates an account with starting capital. Account
// management is surrounding-system glue; it lives here only so a fresh
// process is usable.
func (s *Service) OpenAccount(ctx context.Context, name string, capital decimal.Decimal) (*Account, error) {
	if capital.Sign() < 0 {
		return nil, invalidField("capital", "must not be negative")
	}
	now := s.nowFn()
	acct := &Account{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(name),
		AvailableCapital: capital,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateAccount(ctx, acct); err != nil {
		return nil, err
	}
	s.record(ctx, "account_opened", map[string]any{
		"account_id": acct.ID,
		"capital":    acct.AvailableCapital.String(),
	})
	return acct, nil
}

func (s *Service) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	acct, err := s.store.FindAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, fmt.Errorf("account %s: %w", accountID, ErrAccountNotFound)
	}
	return acct, nil
}

func (s *Service) GetPositions(ctx context.Context, accountID string) ([]Position, error) {
	return s.store.ListPositions(ctx, accountID)
}

// GetQuote exposes the provider for the API's quote passthrough. The
// symbol is normalized the same way order placement normalizes it.
func (s *Service) GetQuote(ctx context.Context, sym string) (*market.Quote, error) {
	normalized, err := symbol.Normalize(sym)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidSymbol)
	}
	return s.lookupQuote(ctx, normalized)
}

func (s *Service) lookupQuote(ctx context.Context, sym string) (*market.Quote, error) {
	q, err := s.quotes.GetQuote(ctx, sym)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %v: %w", sym, err, ErrQuoteUnavailable)
	}
	return q, nil
}

func (s *Service) afterFill(ctx context.Context, o *Order, ex *Execution) {
	s.record(ctx, "order_filled", map[string]any{
		"account_id": o.AccountID,
		"order_id":   o.ID,
		"symbol":     o.Symbol,
		"side":       string(o.Side),
		"quantity":   ex.Quantity.String(),
		"price":      ex.Price.String(),
		"status":     string(o.Status),
	})
	s.notify(fmt.Sprintf("✅ %s %s %s @ %s (%s, filled %s/%s)",
		o.Side, ex.Quantity, o.Symbol, ex.Price, o.Status, o.FilledQuantity, o.Quantity))
}

func (s *Service) record(ctx context.Context, kind string, fields map[string]any) {
	if s.events == nil {
		return
	}
	s.events.Record(ctx, kind, fields)
}

// notify is fire-and-forget: the senders retry with backoff, and a
// matcher scan must never stall on a chat API.
func (s *Service) notify(text string) {
	if s.notifier == nil {
		return
	}
	go func() {
		if err := s.notifier.SendText(text); err != nil {
			logger.Warnf("notifier: %v", err)
		}
	}()
}

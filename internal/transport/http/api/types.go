package apihttp

import (
	"encoding/json"
	"time"

	"paperbroker/internal/broker"
	"paperbroker/internal/market"

	"github.com/shopspring/decimal"
)

type OpenAccountRequest struct {
	Name           string          `json:"name"`
	InitialCapital decimal.Decimal `json:"initial_capital"`
}

type PlaceOrderRequest struct {
	Symbol      string           `json:"symbol"`
	Side        string           `json:"side"`
	Type        string           `json:"type"`
	Quantity    decimal.Decimal  `json:"quantity"`
	LimitPrice  *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice   *decimal.Decimal `json:"stop_price,omitempty"`
	TimeInForce string           `json:"time_in_force,omitempty"`
	ClientMeta  json.RawMessage  `json:"client_meta,omitempty"`
}

type AccountResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	AvailableCapital decimal.Decimal `json:"available_capital"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type PositionResponse struct {
	AccountID        string          `json:"account_id"`
	Symbol           string          `json:"symbol"`
	Quantity         decimal.Decimal `json:"quantity"`
	ReservedQuantity decimal.Decimal `json:"reserved_quantity"`
	AvgCostBasis     decimal.Decimal `json:"avg_cost_basis"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type OrderResponse struct {
	ID             string           `json:"id"`
	AccountID      string           `json:"account_id"`
	Symbol         string           `json:"symbol"`
	Side           string           `json:"side"`
	Type           string           `json:"type"`
	Quantity       decimal.Decimal  `json:"quantity"`
	LimitPrice     *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice      *decimal.Decimal `json:"stop_price,omitempty"`
	TimeInForce    string           `json:"time_in_force"`
	Status         string           `json:"status"`
	FilledQuantity decimal.Decimal  `json:"filled_quantity"`
	AvgFillPrice   decimal.Decimal  `json:"avg_fill_price"`
	ClientMeta     json.RawMessage  `json:"client_meta,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	SubmittedAt    *time.Time       `json:"submitted_at,omitempty"`
	FilledAt       *time.Time       `json:"filled_at,omitempty"`
	CancelledAt    *time.Time       `json:"cancelled_at,omitempty"`
}

type ExecutionResponse struct {
	ID         string          `json:"id"`
	OrderID    string          `json:"order_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Venue      string          `json:"venue"`
	ExecutedAt time.Time       `json:"executed_at"`
}

type QuoteResponse struct {
	Symbol string          `json:"symbol"`
	Bid    decimal.Decimal `json:"bid"`
	Ask    decimal.Decimal `json:"ask"`
	Last   decimal.Decimal `json:"last"`
	At     time.Time       `json:"at"`
}

func accountResponse(a *broker.Account) AccountResponse {
	return AccountResponse{
		ID:               a.ID,
		Name:             a.Name,
		AvailableCapital: a.AvailableCapital,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func positionResponse(p *broker.Position) PositionResponse {
	return PositionResponse{
		AccountID:        p.AccountID,
		Symbol:           p.Symbol,
		Quantity:         p.Quantity,
		ReservedQuantity: p.ReservedQuantity,
		AvgCostBasis:     p.AvgCostBasis,
		UpdatedAt:        p.UpdatedAt,
	}
}

func orderResponse(o *broker.Order) OrderResponse {
	return OrderResponse{
		ID:             o.ID,
		AccountID:      o.AccountID,
		Symbol:         o.Symbol,
		Side:           string(o.Side),
		Type:           string(o.Type),
		Quantity:       o.Quantity,
		LimitPrice:     o.LimitPrice,
		StopPrice:      o.StopPrice,
		TimeInForce:    string(o.TimeInForce),
		Status:         string(o.Status),
		FilledQuantity: o.FilledQuantity,
		AvgFillPrice:   o.AvgFillPrice,
		ClientMeta:     o.ClientMeta,
		CreatedAt:      o.CreatedAt,
		SubmittedAt:    o.SubmittedAt,
		FilledAt:       o.FilledAt,
		CancelledAt:    o.CancelledAt,
	}
}

func executionResponse(ex *broker.Execution) ExecutionResponse {
	return ExecutionResponse{
		ID:         ex.ID,
		OrderID:    ex.OrderID,
		Quantity:   ex.Quantity,
		Price:      ex.Price,
		Venue:      ex.Venue,
		ExecutedAt: ex.ExecutedAt,
	}
}

func quoteResponse(q *market.Quote) QuoteResponse {
	return QuoteResponse{
		Symbol: q.Symbol,
		Bid:    q.Bid,
		Ask:    q.Ask,
		Last:   q.Last,
		At:     q.At,
	}
}

package broker

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide is the direction of an order.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

func (s OrderSide) Valid() bool {
	return s == SideBuy || s == SideSell
}

// OrderType decides how an order prices and when it executes.
type OrderType string

const (
	TypeMarket    OrderType = "market"
	TypeLimit     OrderType = "limit"
	TypeStop      OrderType = "stop"
	TypeStopLimit OrderType = "stop_limit"
)

func (t OrderType) Valid() bool {
	switch t {
	case TypeMarket, TypeLimit, TypeStop, TypeStopLimit:
		return true
	}
	return false
}

// RequiresLimitPrice reports whether orders of this type are rejected
// without a limit price.
func (t OrderType) RequiresLimitPrice() bool {
	return t == TypeLimit || t == TypeStopLimit
}

// RequiresStopPrice reports whether orders of this type are rejected
// without a stop price.
func (t OrderType) RequiresStopPrice() bool {
	return t == TypeStop || t == TypeStopLimit
}

// Matchable reports whether the background matcher is responsible for
// executing this type. Market orders fill synchronously at placement.
func (t OrderType) Matchable() bool {
	return t != TypeMarket
}

// OrderStatus is the lifecycle state of an order.
//
// pending -> submitted|partial -> filled, or any open state -> cancelled.
// filled and cancelled are terminal.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusSubmitted OrderStatus = "submitted"
	StatusPartial   OrderStatus = "partial"
	StatusFilled    OrderStatus = "filled"
	StatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSubmitted, StatusPartial, StatusFilled, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s == StatusFilled || s == StatusCancelled
}

// Open reports whether the order still has live quantity to work.
func (s OrderStatus) Open() bool {
	return s == StatusPending || s == StatusSubmitted || s == StatusPartial
}

// OpenStatuses are the states the matcher scans.
func OpenStatuses() []OrderStatus {
	return []OrderStatus{StatusPending, StatusSubmitted, StatusPartial}
}

// TimeInForce is persisted and validated; the engine applies no expiry
// semantics itself (terminal-order retention is an operational concern).
type TimeInForce string

const (
	TIFDay TimeInForce = "day"
	TIFGTC TimeInForce = "gtc"
)

func (t TimeInForce) Valid() bool {
	return t == TIFDay || t == TIFGTC
}

// Account holds the capital a user can still commit to buy orders.
type Account struct {
	ID               string
	Name             string
	AvailableCapital decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Position is the holding of one symbol in one account.
// ReservedQuantity is the slice already committed to open sell orders;
// 0 <= ReservedQuantity <= Quantity holds outside in-flight transactions.
type Position struct {
	AccountID        string
	Symbol           string
	Quantity         decimal.Decimal
	ReservedQuantity decimal.Decimal
	AvgCostBasis     decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Sellable is the quantity not yet spoken for by open sell orders.
func (p *Position) Sellable() decimal.Decimal {
	return p.Quantity.Sub(p.ReservedQuantity)
}

// Order is one buy/sell instruction and its fill bookkeeping.
//
// ReservedUnitCost is the per-share estimate a buy reservation was
// taken at (limit price, else the ask at placement). Cancellation and
// fill true-ups must use this persisted basis, never a fresh quote.
type Order struct {
	ID             string
	AccountID      string
	Symbol         string
	Side           OrderSide
	Type           OrderType
	Quantity       decimal.Decimal
	LimitPrice     *decimal.Decimal
	StopPrice      *decimal.Decimal
	TimeInForce    TimeInForce
	Status         OrderStatus
	FilledQuantity decimal.Decimal
	AvgFillPrice   decimal.Decimal

	ReservedUnitCost decimal.Decimal
	ClientMeta       json.RawMessage

	CreatedAt   time.Time
	SubmittedAt *time.Time
	FilledAt    *time.Time
	CancelledAt *time.Time
}

// Remaining is the unfilled quantity.
func (o *Order) Remaining() decimal.Decimal {
	return o.Quantity.Sub(o.FilledQuantity)
}

// CanCancel reports whether a cancel transition is legal from the
// order's current state.
func (o *Order) CanCancel() bool {
	return o.Status.Open()
}

// Execution is one fill of an order. Append-only: executions are never
// updated or deleted, and one order may accumulate many of them.
type Execution struct {
	ID         string
	OrderID    string
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	Venue      string
	ExecutedAt time.Time
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// AccountModel is the accounts table row. Capital uses a wide decimal
// column; the engine never stores money as floats.
type AccountModel struct {
	ID               string          `gorm:"column:id;primaryKey;size:64"`
	Name             string          `gorm:"column:name;size:128"`
	AvailableCapital decimal.Decimal `gorm:"column:available_capital;type:decimal(32,18);not null"`
	CreatedAt        time.Time       `gorm:"column:created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at"`
}

func (AccountModel) TableName() string { return "accounts" }

// PositionModel is the positions table row, unique per (account,
// symbol). A row only exists while quantity > 0.
type PositionModel struct {
	ID               uint            `gorm:"column:id;primaryKey;autoIncrement"`
	AccountID        string          `gorm:"column:account_id;size:64;not null;uniqueIndex:uniq_positions_account_symbol"`
	Symbol           string          `gorm:"column:symbol;size:32;not null;uniqueIndex:uniq_positions_account_symbol"`
	Quantity         decimal.Decimal `gorm:"column:quantity;type:decimal(32,18);not null"`
	ReservedQuantity decimal.Decimal `gorm:"column:reserved_quantity;type:decimal(32,18);not null"`
	AvgCostBasis     decimal.Decimal `gorm:"column:avg_cost_basis;type:decimal(32,18);not null"`
	CreatedAt        time.Time       `gorm:"column:created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at"`
}

func (PositionModel) TableName() string { return "positions" }

// OrderModel is the orders table row. The (status, order_type) index
// serves the matcher's scan; (account_id, created_at) serves the
// order-history listing.
type OrderModel struct {
	ID               string           `gorm:"column:id;primaryKey;size:64"`
	AccountID        string           `gorm:"column:account_id;size:64;not null;index:idx_orders_account_created,priority:1"`
	Symbol           string           `gorm:"column:symbol;size:32;not null"`
	Side             string           `gorm:"column:side;size:8;not null"`
	OrderType        string           `gorm:"column:order_type;size:16;not null;index:idx_orders_status_type,priority:2"`
	Quantity         decimal.Decimal  `gorm:"column:quantity;type:decimal(32,18);not null"`
	LimitPrice       *decimal.Decimal `gorm:"column:limit_price;type:decimal(32,18)"`
	StopPrice        *decimal.Decimal `gorm:"column:stop_price;type:decimal(32,18)"`
	TimeInForce      string           `gorm:"column:time_in_force;size:8;not null"`
	Status           string           `gorm:"column:status;size:16;not null;index:idx_orders_status_type,priority:1"`
	FilledQuantity   decimal.Decimal  `gorm:"column:filled_quantity;type:decimal(32,18);not null"`
	AvgFillPrice     decimal.Decimal  `gorm:"column:avg_fill_price;type:decimal(32,18);not null"`
	ReservedUnitCost decimal.Decimal  `gorm:"column:reserved_unit_cost;type:decimal(32,18);not null"`
	ClientMeta       datatypes.JSON   `gorm:"column:client_meta;type:TEXT"`
	CreatedAt        time.Time        `gorm:"column:created_at;index:idx_orders_account_created,priority:2"`
	SubmittedAt      *time.Time       `gorm:"column:submitted_at"`
	FilledAt         *time.Time       `gorm:"column:filled_at"`
	CancelledAt      *time.Time       `gorm:"column:cancelled_at"`
}

func (OrderModel) TableName() string { return "orders" }

// ExecutionModel is the executions table row. Append-only.
type ExecutionModel struct {
	ID         string          `gorm:"column:id;primaryKey;size:64"`
	OrderID    string          `gorm:"column:order_id;size:64;not null;index"`
	Quantity   decimal.Decimal `gorm:"column:quantity;type:decimal(32,18);not null"`
	Price      decimal.Decimal `gorm:"column:price;type:decimal(32,18);not null"`
	Venue      string          `gorm:"column:venue;size:32;not null"`
	ExecutedAt time.Time       `gorm:"column:executed_at;index"`
}

func (ExecutionModel) TableName() string { return "executions" }

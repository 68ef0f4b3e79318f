package sqlite

import (
	"encoding/json"

	"paperbroker/internal/broker"
	"paperbroker/internal/store/model"

	"gorm.io/datatypes"
)

func accountToModel(a *broker.Account) *model.AccountModel {
	return &model.AccountModel{
		ID:               a.ID,
		Name:             a.Name,
		AvailableCapital: a.AvailableCapital,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func accountFromModel(m *model.AccountModel) *broker.Account {
	return &broker.Account{
		ID:               m.ID,
		Name:             m.Name,
		AvailableCapital: m.AvailableCapital,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func positionToModel(p *broker.Position) *model.PositionModel {
	return &model.PositionModel{
		AccountID:        p.AccountID,
		Symbol:           p.Symbol,
		Quantity:         p.Quantity,
		ReservedQuantity: p.ReservedQuantity,
		AvgCostBasis:     p.AvgCostBasis,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func positionFromModel(m *model.PositionModel) *broker.Position {
	return &broker.Position{
		AccountID:        m.AccountID,
		Symbol:           m.Symbol,
		Quantity:         m.Quantity,
		ReservedQuantity: m.ReservedQuantity,
		AvgCostBasis:     m.AvgCostBasis,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func orderToModel(o *broker.Order) *model.OrderModel {
	var meta datatypes.JSON
	if len(o.ClientMeta) > 0 {
		meta = datatypes.JSON(o.ClientMeta)
	}
	return &model.OrderModel{
		ID:               o.ID,
		AccountID:        o.AccountID,
		Symbol:           o.Symbol,
		Side:             string(o.Side),
		OrderType:        string(o.Type),
		Quantity:         o.Quantity,
		LimitPrice:       o.LimitPrice,
		StopPrice:        o.StopPrice,
		TimeInForce:      string(o.TimeInForce),
		Status:           string(o.Status),
		FilledQuantity:   o.FilledQuantity,
		AvgFillPrice:     o.AvgFillPrice,
		ReservedUnitCost: o.ReservedUnitCost,
		ClientMeta:       meta,
		CreatedAt:        o.CreatedAt,
		SubmittedAt:      o.SubmittedAt,
		FilledAt:         o.FilledAt,
		CancelledAt:      o.CancelledAt,
	}
}

func orderFromModel(m *model.OrderModel) *broker.Order {
	var meta json.RawMessage
	if len(m.ClientMeta) > 0 {
		meta = json.RawMessage(m.ClientMeta)
	}
	return &broker.Order{
		ID:               m.ID,
		AccountID:        m.AccountID,
		Symbol:           m.Symbol,
		Side:             broker.OrderSide(m.Side),
		Type:             broker.OrderType(m.OrderType),
		Quantity:         m.Quantity,
		LimitPrice:       m.LimitPrice,
		StopPrice:        m.StopPrice,
		TimeInForce:      broker.TimeInForce(m.TimeInForce),
		Status:           broker.OrderStatus(m.Status),
		FilledQuantity:   m.FilledQuantity,
		AvgFillPrice:     m.AvgFillPrice,
		ReservedUnitCost: m.ReservedUnitCost,
		ClientMeta:       meta,
		CreatedAt:        m.CreatedAt,
		SubmittedAt:      m.SubmittedAt,
		FilledAt:         m.FilledAt,
		CancelledAt:      m.CancelledAt,
	}
}

func executionToModel(ex *broker.Execution) *model.ExecutionModel {
	return &model.ExecutionModel{
		ID:         ex.ID,
		OrderID:    ex.OrderID,
		Quantity:   ex.Quantity,
		Price:      ex.Price,
		Venue:      ex.Venue,
		ExecutedAt: ex.ExecutedAt,
	}
}

func executionFromModel(m *model.ExecutionModel) *broker.Execution {
	return &broker.Execution{
		ID:         m.ID,
		OrderID:    m.OrderID,
		Quantity:   m.Quantity,
		Price:      m.Price,
		Venue:      m.Venue,
		ExecutedAt: m.ExecutedAt,
	}
}

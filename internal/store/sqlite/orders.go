package sqlite

import (
	"context"
	"errors"
	"fmt"

	"paperbroker/internal/broker"
	"paperbroker/internal/store/model"

	"gorm.io/gorm"
)

func (s *Store) FindOrder(ctx context.Context, orderID string) (*broker.Order, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store is not initialized")
	}
	var m model.OrderModel
	err := s.db.WithContext(ctx).Where("id = ?", orderID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return orderFromModel(&m), nil
}

func (s *Store) ListOrders(ctx context.Context, accountID string, status *broker.OrderStatus) ([]broker.Order, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store is not initialized")
	}
	q := s.db.WithContext(ctx).Where("account_id = ?", accountID)
	if status != nil {
		q = q.Where("status = ?", string(*status))
	}
	var rows []model.OrderModel
	if err := q.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return ordersFromModels(rows), nil
}

// ListOpenMatchable returns resting orders the matcher should evaluate,
// oldest first so earlier orders fill first when capital is tight.
// Market orders never rest so they are excluded here.
func (s *Store) ListOpenMatchable(ctx context.Context, limit int) ([]broker.Order, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store is not initialized")
	}
	open := broker.OpenStatuses()
	states := make([]string, 0, len(open))
	for _, st := range open {
		states = append(states, string(st))
	}
	q := s.db.WithContext(ctx).
		Where("status IN ?", states).
		Where("order_type <> ?", string(broker.TypeMarket)).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []model.OrderModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return ordersFromModels(rows), nil
}

func ordersFromModels(rows []model.OrderModel) []broker.Order {
	out := make([]broker.Order, 0, len(rows))
	for i := range rows {
		out = append(out, *orderFromModel(&rows[i]))
	}
	return out
}

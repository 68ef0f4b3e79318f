package sqlite

import (
	"context"
	"fmt"

	"paperbroker/internal/broker"
	"paperbroker/internal/store/model"
)

func (s *Store) ListExecutions(ctx context.Context, orderID string) ([]broker.Execution, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store is not initialized")
	}
	var rows []model.ExecutionModel
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("executed_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]broker.Execution, 0, len(rows))
	for i := range rows {
		out = append(out, *executionFromModel(&rows[i]))
	}
	return out, nil
}

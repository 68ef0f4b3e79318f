package sqlite

import (
	"context"
	"errors"
	"fmt"

	"paperbroker/internal/broker"
	"paperbroker/internal/store/model"

	"gorm.io/gorm"
)

func (s *Store) CreateAccount(ctx context.Context, acct *broker.Account) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store is not initialized")
	}
	if acct == nil {
		return fmt.Errorf("create nil account")
	}
	return s.db.WithContext(ctx).Create(accountToModel(acct)).Error
}

func (s *Store) FindAccount(ctx context.Context, accountID string) (*broker.Account, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store is not initialized")
	}
	var m model.AccountModel
	err := s.db.WithContext(ctx).Where("id = ?", accountID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return accountFromModel(&m), nil
}

func (s *Store) ListPositions(ctx context.Context, accountID string) ([]broker.Position, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store is not initialized")
	}
	var rows []model.PositionModel
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("symbol ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]broker.Position, 0, len(rows))
	for i := range rows {
		out = append(out, *positionFromModel(&rows[i]))
	}
	return out, nil
}

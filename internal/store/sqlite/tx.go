package sqlite

import (
	"context"
	"errors"
	"fmt"

	"paperbroker/internal/broker"
	"paperbroker/internal/store/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// storeTx is the broker.Tx view over one gorm transaction.
type storeTx struct {
	db       *gorm.DB
	rowLocks bool
}

// locked appends FOR UPDATE where the driver supports it. On sqlite
// the transaction itself already holds the database write lock.
func (t *storeTx) locked() *gorm.DB {
	if t.rowLocks {
		return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return t.db
}

func (t *storeTx) AccountForUpdate(ctx context.Context, accountID string) (*broker.Account, error) {
	var m model.AccountModel
	err := t.locked().WithContext(ctx).Where("id = ?", accountID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return accountFromModel(&m), nil
}

func (t *storeTx) PositionForUpdate(ctx context.Context, accountID, symbol string) (*broker.Position, error) {
	var m model.PositionModel
	err := t.locked().WithContext(ctx).
		Where("account_id = ? AND symbol = ?", accountID, symbol).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return positionFromModel(&m), nil
}

func (t *storeTx) OrderForUpdate(ctx context.Context, orderID string) (*broker.Order, error) {
	var m model.OrderModel
	err := t.locked().WithContext(ctx).Where("id = ?", orderID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return orderFromModel(&m), nil
}

func (t *storeTx) SaveAccount(ctx context.Context, acct *broker.Account) error {
	if acct == nil {
		return fmt.Errorf("save nil account")
	}
	return t.db.WithContext(ctx).
		Model(&model.AccountModel{}).
		Where("id = ?", acct.ID).
		Updates(map[string]any{
			"name":              acct.Name,
			"available_capital": acct.AvailableCapital,
		}).Error
}

// SavePosition upserts on the (account_id, symbol) unique key: fills
// create rows and update them through the same call.
func (t *storeTx) SavePosition(ctx context.Context, pos *broker.Position) error {
	if pos == nil {
		return fmt.Errorf("save nil position")
	}
	m := positionToModel(pos)
	return t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}, {Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"quantity", "reserved_quantity", "avg_cost_basis", "updated_at",
		}),
	}).Create(m).Error
}

func (t *storeTx) DeletePosition(ctx context.Context, accountID, symbol string) error {
	return t.db.WithContext(ctx).
		Where("account_id = ? AND symbol = ?", accountID, symbol).
		Delete(&model.PositionModel{}).Error
}

func (t *storeTx) CreateOrder(ctx context.Context, o *broker.Order) error {
	if o == nil {
		return fmt.Errorf("create nil order")
	}
	return t.db.WithContext(ctx).Create(orderToModel(o)).Error
}

func (t *storeTx) SaveOrder(ctx context.Context, o *broker.Order) error {
	if o == nil {
		return fmt.Errorf("save nil order")
	}
	m := orderToModel(o)
	return t.db.WithContext(ctx).Save(m).Error
}

func (t *storeTx) CreateExecution(ctx context.Context, ex *broker.Execution) error {
	if ex == nil {
		return fmt.Errorf("create nil execution")
	}
	return t.db.WithContext(ctx).Create(executionToModel(ex)).Error
}

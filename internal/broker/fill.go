package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// applyFill executes one fill of an order inside the caller's
// transaction: appends the Execution, advances the order's fill
// bookkeeping, applies the fill to the position, and trues up capital.
// Either every one of those commits or none of them do; the caller's
// transaction boundary is the atomicity guarantee.
//
// quantity must be positive and no more than the order's remainder;
// the order row must be current under the caller's lock.
func (s *Service) applyFill(ctx context.Context, tx Tx, order *Order, price, quantity decimal.Decimal) (*Execution, error) {
	if quantity.Sign() <= 0 {
		return nil, fmt.Errorf("fill quantity %s: %w", quantity, ErrInvalidQuantity)
	}
	if quantity.GreaterThan(order.Remaining()) {
		return nil, fmt.Errorf("fill quantity %s exceeds remainder %s: %w", quantity, order.Remaining(), ErrInvalidQuantity)
	}
	if price.Sign() <= 0 {
		return nil, fmt.Errorf("fill price %s: %w", price, ErrQuoteUnavailable)
	}

	now := s.nowFn()
	ex := &Execution{
		ID:         uuid.NewString(),
		OrderID:    order.ID,
		Quantity:   quantity,
		Price:      price,
		Venue:      s.venue,
		ExecutedAt: now,
	}
	if err := tx.CreateExecution(ctx, ex); err != nil {
		return nil, err
	}

	order.AvgFillPrice = weightedAverage(order.FilledQuantity, order.AvgFillPrice, quantity, price)
	order.FilledQuantity = order.FilledQuantity.Add(quantity)
	if order.FilledQuantity.Cmp(order.Quantity) >= 0 {
		order.Status = StatusFilled
		order.FilledAt = &now
	} else {
		order.Status = StatusPartial
	}

	acct, err := tx.AccountForUpdate(ctx, order.AccountID)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, fmt.Errorf("account %s: %w", order.AccountID, ErrAccountNotFound)
	}

	switch order.Side {
	case SideBuy:
		if err := s.applyBuyToPosition(ctx, tx, order, price, quantity, now); err != nil {
			return nil, err
		}
		// True up: the reservation was taken at ReservedUnitCost per
		// share. A cheaper fill refunds the difference; a costlier one
		// (possible for plain stop buys, whose estimate was the ask at
		// placement) debits it, and the fill aborts rather than drive
		// the account negative.
		adjust := order.ReservedUnitCost.Sub(price).Mul(quantity)
		newCapital := acct.AvailableCapital.Add(adjust)
		if newCapital.Sign() < 0 {
			return nil, fmt.Errorf("true-up of order %s overdraws account by %s: %w",
				order.ID, newCapital.Neg(), ErrInsufficientFunds)
		}
		acct.AvailableCapital = newCapital
	case SideSell:
		if err := s.applySellToPosition(ctx, tx, order, quantity, now); err != nil {
			return nil, err
		}
		// Sell proceeds free capital at the actual price.
		acct.AvailableCapital = acct.AvailableCapital.Add(price.Mul(quantity))
	default:
		return nil, invalidField("side", fmt.Sprintf("unknown side %q", order.Side))
	}

	if err := tx.SaveAccount(ctx, acct); err != nil {
		return nil, err
	}
	if err := tx.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	return ex, nil
}

// applyBuyToPosition creates the position on a first fill, otherwise
// folds the fill into the weighted average cost basis.
func (s *Service) applyBuyToPosition(ctx context.Context, tx Tx, order *Order, price, quantity decimal.Decimal, now time.Time) error {
	pos, err := tx.PositionForUpdate(ctx, order.AccountID, order.Symbol)
	if err != nil {
		return err
	}
	if pos == nil {
		pos = &Position{
			AccountID:        order.AccountID,
			Symbol:           order.Symbol,
			Quantity:         quantity,
			ReservedQuantity: decimal.Zero,
			AvgCostBasis:     price,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		return tx.SavePosition(ctx, pos)
	}
	pos.AvgCostBasis = weightedAverage(pos.Quantity, pos.AvgCostBasis, quantity, price)
	pos.Quantity = pos.Quantity.Add(quantity)
	pos.UpdatedAt = now
	return tx.SavePosition(ctx, pos)
}

// applySellToPosition hands shares out of the position and releases the
// same amount of reservation. Cost basis of what remains is untouched:
// selling never rewrites what the kept shares cost. A position sold to
// zero is deleted outright.
func (s *Service) applySellToPosition(ctx context.Context, tx Tx, order *Order, quantity decimal.Decimal, now time.Time) error {
	pos, err := tx.PositionForUpdate(ctx, order.AccountID, order.Symbol)
	if err != nil {
		return err
	}
	if pos == nil {
		return fmt.Errorf("sell fill for order %s: %s in account %s: %w",
			order.ID, order.Symbol, order.AccountID, ErrPositionNotFound)
	}
	newQty := pos.Quantity.Sub(quantity)
	pos.ReservedQuantity = floorZero(pos.ReservedQuantity.Sub(quantity))
	if newQty.Sign() <= 0 {
		return tx.DeletePosition(ctx, order.AccountID, order.Symbol)
	}
	pos.Quantity = newQty
	pos.UpdatedAt = now
	return tx.SavePosition(ctx, pos)
}

// FillOpenOrder fills an open order's full remainder at price, in its
// own transaction. The order is re-read under an exclusive lock and its
// state re-checked first, so a fill racing a cancellation loses cleanly
// instead of resurrecting a terminal order.
func (s *Service) FillOpenOrder(ctx context.Context, orderID string, price decimal.Decimal) error {
	var (
		order *Order
		exec  *Execution
	)
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		cur, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if cur == nil {
			return fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
		}
		if !cur.Status.Open() {
			return fmt.Errorf("fill order %s in status %s: %w", orderID, cur.Status, ErrInvalidStateTransition)
		}
		remaining := cur.Remaining()
		if remaining.Sign() <= 0 {
			return fmt.Errorf("order %s has no remainder: %w", orderID, ErrInvalidQuantity)
		}
		filled, err := s.applyFill(ctx, tx, cur, price, remaining)
		if err != nil {
			return err
		}
		order, exec = cur, filled
		return nil
	})
	if err != nil {
		return err
	}
	s.afterFill(ctx, order, exec)
	return nil
}

// weightedAverage folds (addQty @ addPrice) into an existing average.
// With no prior quantity the new price IS the average.
func weightedAverage(oldQty, oldAvg, addQty, addPrice decimal.Decimal) decimal.Decimal {
	if oldQty.Sign() <= 0 {
		return addPrice
	}
	total := oldQty.Add(addQty)
	if total.Sign() <= 0 {
		return addPrice
	}
	return oldQty.Mul(oldAvg).Add(addQty.Mul(addPrice)).Div(total)
}

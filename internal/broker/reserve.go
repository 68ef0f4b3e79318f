package broker

import (
	"context"
	"fmt"

	"paperbroker/internal/logger"
	"paperbroker/internal/market"

	"github.com/shopspring/decimal"
)

// reserve runs the in-transaction half of validation and takes the
// reservation, under an exclusive lock on the row being debited.
//
// Buys reserve capital at an estimated unit cost: the limit price if
// there is one, else the current ask. The estimate is persisted on the
// order (ReservedUnitCost) and trued up to the real fill price later.
// Sells reserve shares by bumping the position's reserved quantity.
func (s *Service) reserve(ctx context.Context, tx Tx, order *Order, quote *market.Quote) error {
	switch order.Side {
	case SideBuy:
		acct, err := tx.AccountForUpdate(ctx, order.AccountID)
		if err != nil {
			return err
		}
		if acct == nil {
			return fmt.Errorf("account %s: %w", order.AccountID, ErrAccountNotFound)
		}
		unit := quote.Ask
		if order.LimitPrice != nil {
			unit = *order.LimitPrice
		}
		if unit.Sign() <= 0 {
			return fmt.Errorf("no usable ask for %s: %w", order.Symbol, ErrQuoteUnavailable)
		}
		estimated := order.Quantity.Mul(unit)
		if acct.AvailableCapital.LessThan(estimated) {
			return fmt.Errorf("need %s, have %s: %w", estimated, acct.AvailableCapital, ErrInsufficientFunds)
		}
		acct.AvailableCapital = acct.AvailableCapital.Sub(estimated)
		order.ReservedUnitCost = unit
		return tx.SaveAccount(ctx, acct)

	case SideSell:
		pos, err := tx.PositionForUpdate(ctx, order.AccountID, order.Symbol)
		if err != nil {
			return err
		}
		if pos == nil {
			return fmt.Errorf("no %s position in account %s: %w", order.Symbol, order.AccountID, ErrPositionNotFound)
		}
		if order.Quantity.GreaterThan(pos.Sellable()) {
			return fmt.Errorf("want %s, sellable %s: %w", order.Quantity, pos.Sellable(), ErrInsufficientShares)
		}
		pos.ReservedQuantity = pos.ReservedQuantity.Add(order.Quantity)
		return tx.SavePosition(ctx, pos)
	}
	return invalidField("side", fmt.Sprintf("unknown side %q", order.Side))
}

// releaseReservation gives back whatever the order still holds: unspent
// estimated capital for buys, reserved shares for sells. Fully filled
// orders have nothing left to release.
func (s *Service) releaseReservation(ctx context.Context, tx Tx, order *Order) error {
	remaining := order.Remaining()
	if remaining.Sign() <= 0 {
		return nil
	}
	switch order.Side {
	case SideBuy:
		acct, err := tx.AccountForUpdate(ctx, order.AccountID)
		if err != nil {
			return err
		}
		if acct == nil {
			return fmt.Errorf("account %s: %w", order.AccountID, ErrAccountNotFound)
		}
		acct.AvailableCapital = acct.AvailableCapital.Add(remaining.Mul(order.ReservedUnitCost))
		return tx.SaveAccount(ctx, acct)

	case SideSell:
		pos, err := tx.PositionForUpdate(ctx, order.AccountID, order.Symbol)
		if err != nil {
			return err
		}
		if pos == nil {
			// The reserve should pin the row in place while the order is
			// open; tolerate its absence rather than strand the cancel.
			logger.Warnf("cancel order %s: %s position missing while releasing %s shares",
				order.ID, order.Symbol, remaining)
			return nil
		}
		pos.ReservedQuantity = floorZero(pos.ReservedQuantity.Sub(remaining))
		return tx.SavePosition(ctx, pos)
	}
	return invalidField("side", fmt.Sprintf("unknown side %q", order.Side))
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.Sign() < 0 {
		return decimal.Zero
	}
	return d
}

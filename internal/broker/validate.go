package broker

import (
	"fmt"

	"paperbroker/internal/pkg/symbol"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// buildOrder turns a request into a pending Order, or explains why it
// never will be one. Everything here is shape checking, no store and
// no locks; the balance/position checks live in reserve().
func (s *Service) buildOrder(accountID string, req PlaceOrderRequest) (*Order, error) {
	sym, err := symbol.Normalize(req.Symbol)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidSymbol)
	}
	if !req.Side.Valid() {
		return nil, invalidField("side", fmt.Sprintf("must be %q or %q", SideBuy, SideSell))
	}
	if !req.Type.Valid() {
		return nil, invalidField("order_type", fmt.Sprintf("unknown order type %q", req.Type))
	}
	if req.Quantity.Sign() <= 0 {
		return nil, fmt.Errorf("quantity %s: %w", req.Quantity, ErrInvalidQuantity)
	}

	if req.Type.RequiresLimitPrice() {
		if req.LimitPrice == nil {
			return nil, fmt.Errorf("%s order needs a limit price: %w", req.Type, ErrMissingPrice)
		}
		if req.LimitPrice.Sign() <= 0 {
			return nil, invalidField("limit_price", "must be positive")
		}
	} else if req.LimitPrice != nil {
		return nil, invalidField("limit_price", fmt.Sprintf("not allowed for %s orders", req.Type))
	}

	if req.Type.RequiresStopPrice() {
		if req.StopPrice == nil {
			return nil, fmt.Errorf("%s order needs a stop price: %w", req.Type, ErrMissingPrice)
		}
		if req.StopPrice.Sign() <= 0 {
			return nil, invalidField("stop_price", "must be positive")
		}
	} else if req.StopPrice != nil {
		return nil, invalidField("stop_price", fmt.Sprintf("not allowed for %s orders", req.Type))
	}

	tif := req.TimeInForce
	if tif == "" {
		tif = s.defaultTIF
	}
	if !tif.Valid() {
		return nil, invalidField("time_in_force", fmt.Sprintf("must be %q or %q", TIFDay, TIFGTC))
	}

	now := s.nowFn()
	return &Order{
		ID:             uuid.NewString(),
		AccountID:      accountID,
		Symbol:         sym,
		Side:           req.Side,
		Type:           req.Type,
		Quantity:       req.Quantity,
		LimitPrice:     copyDecimal(req.LimitPrice),
		StopPrice:      copyDecimal(req.StopPrice),
		TimeInForce:    tif,
		Status:         StatusPending,
		FilledQuantity: decimal.Zero,
		AvgFillPrice:   decimal.Zero,
		ClientMeta:     req.ClientMeta,
		CreatedAt:      now,
	}, nil
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

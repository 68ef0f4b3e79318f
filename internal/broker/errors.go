package broker

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by placement, cancellation and fill paths.
// Callers match them with errors.Is; the HTTP layer maps them to
// response codes.
var (
	ErrInvalidSymbol          = errors.New("invalid_symbol")
	ErrInvalidQuantity        = errors.New("invalid_quantity")
	ErrMissingPrice           = errors.New("missing_price")
	ErrInsufficientFunds      = errors.New("insufficient_funds")
	ErrInsufficientShares     = errors.New("insufficient_shares")
	ErrPositionNotFound       = errors.New("position_not_found")
	ErrOrderNotFound          = errors.New("order_not_found")
	ErrAccountNotFound        = errors.New("account_not_found")
	ErrInvalidStateTransition = errors.New("invalid_state_transition")
	ErrQuoteUnavailable       = errors.New("quote_unavailable")
)

// ValidationError reports a malformed request field (unknown side,
// order type, and so on). Shape problems, not business rejections;
// those are the sentinels above.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalidField(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

package broker

import "context"

// Tx is the view of the store inside one transaction. The ForUpdate
// methods take an exclusive row lock before returning the current row,
// so read-modify-write sequences cannot lose updates to concurrent
// placements, cancels, or matcher fills.
//
// Transactions that touch more than one entity must lock in the order
// Order -> Account -> Position so lock acquisition stays acyclic.
//
// ForUpdate lookups return (nil, nil) when the row does not exist;
// the caller decides which domain error that is.
type Tx interface {
	AccountForUpdate(ctx context.Context, accountID string) (*Account, error)
	PositionForUpdate(ctx context.Context, accountID, symbol string) (*Position, error)
	OrderForUpdate(ctx context.Context, orderID string) (*Order, error)

	SaveAccount(ctx context.Context, acct *Account) error
	SavePosition(ctx context.Context, pos *Position) error
	DeletePosition(ctx context.Context, accountID, symbol string) error
	CreateOrder(ctx context.Context, o *Order) error
	SaveOrder(ctx context.Context, o *Order) error
	CreateExecution(ctx context.Context, ex *Execution) error
}

// Store is the persistence boundary of the engine. WithinTx runs fn in
// one transaction: fn returning an error rolls everything back, nil
// commits. Plain lookups return (nil, nil) when the row is absent.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	CreateAccount(ctx context.Context, acct *Account) error
	FindAccount(ctx context.Context, accountID string) (*Account, error)
	ListPositions(ctx context.Context, accountID string) ([]Position, error)

	FindOrder(ctx context.Context, orderID string) (*Order, error)
	// ListOrders returns the account's orders newest-created first,
	// optionally filtered to one status.
	ListOrders(ctx context.Context, accountID string, status *OrderStatus) ([]Order, error)
	// ListOpenMatchable returns open limit/stop/stop_limit orders,
	// oldest-created first, capped at limit when limit > 0.
	ListOpenMatchable(ctx context.Context, limit int) ([]Order, error)
	// ListExecutions returns an order's fills newest first.
	ListExecutions(ctx context.Context, orderID string) ([]Execution, error)
}

// EventSink receives engine events after their transaction commits.
// Implementations must be non-blocking-ish and must never fail the
// caller: journaling is an ops aid, not transactional state.
type EventSink interface {
	Record(ctx context.Context, kind string, fields map[string]any)
}

// Notifier pushes human-readable trade notifications. Matched
// structurally by notify.Telegram and friends.
type Notifier interface {
	SendText(text string) error
}

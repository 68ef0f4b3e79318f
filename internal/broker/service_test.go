package broker_test

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"paperbroker/internal/broker"
	"paperbroker/internal/market"
	"paperbroker/internal/store/sqlite"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClock = time.Date(2024, 5, 6, 9, 30, 0, 0, time.UTC)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func decp(v string) *decimal.Decimal {
	x := decimal.RequireFromString(v)
	return &x
}

// recordingSink captures engine events in emission order.
type recordingSink struct {
	mu    sync.Mutex
	kinds []string
}

func (r *recordingSink) Record(_ context.Context, kind string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
}

func (r *recordingSink) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.kinds))
	copy(out, r.kinds)
	return out
}

// chanNotifier hands each message to the test goroutine; the service
// sends from its own goroutine.
type chanNotifier struct {
	ch chan string
}

func (n *chanNotifier) SendText(text string) error {
	n.ch <- text
	return nil
}

func (n *chanNotifier) wait(t *testing.T) string {
	t.Helper()
	select {
	case msg := <-n.ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no notification arrived")
		return ""
	}
}

type fixture struct {
	svc    *broker.Service
	store  *sqlite.Store
	quotes *market.StaticProvider
	sink   *recordingSink
}

// newFixture builds a service on a throwaway sqlite file with AAPL
// quoted at 99/100 and a frozen clock.
func newFixture(t *testing.T, opts ...broker.ServiceOption) *fixture {
	t.Helper()
	st, err := sqlite.New(sqlite.Config{Path: filepath.Join(t.TempDir(), "broker.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	quotes := market.NewStaticProvider()
	quotes.SetQuote("AAPL", dec("99"), dec("100"), dec("100"))

	sink := &recordingSink{}
	base := []broker.ServiceOption{
		broker.WithClock(func() time.Time { return testClock }),
		broker.WithEventSink(sink),
	}
	svc := broker.NewService(st, quotes, append(base, opts...)...)
	return &fixture{svc: svc, store: st, quotes: quotes, sink: sink}
}

func (f *fixture) openAccount(t *testing.T, capital string) *broker.Account {
	t.Helper()
	acct, err := f.svc.OpenAccount(context.Background(), "test account", dec(capital))
	require.NoError(t, err)
	return acct
}

func (f *fixture) capital(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	acct, err := f.svc.GetAccount(context.Background(), accountID)
	require.NoError(t, err)
	return acct.AvailableCapital
}

func (f *fixture) position(t *testing.T, accountID, symbol string) *broker.Position {
	t.Helper()
	positions, err := f.svc.GetPositions(context.Background(), accountID)
	require.NoError(t, err)
	for i := range positions {
		if positions[i].Symbol == symbol {
			return &positions[i]
		}
	}
	return nil
}

func (f *fixture) marketBuy(t *testing.T, accountID, symbol, qty string) *broker.Order {
	t.Helper()
	o, err := f.svc.PlaceOrder(context.Background(), accountID, broker.PlaceOrderRequest{
		Symbol:   symbol,
		Side:     broker.SideBuy,
		Type:     broker.TypeMarket,
		Quantity: dec(qty),
	})
	require.NoError(t, err)
	return o
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, note ...string) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "got %s, want %s %s", got, want, strings.Join(note, " "))
}

func TestMarketBuyFillsSynchronously(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acct := f.openAccount(t, "1000")

	o := f.marketBuy(t, acct.ID, "AAPL", "5")

	assert.Equal(t, broker.StatusFilled, o.Status)
	assertDecimal(t, "5", o.FilledQuantity)
	assertDecimal(t, "100", o.AvgFillPrice)
	assertDecimal(t, "100", o.ReservedUnitCost)
	assert.Equal(t, broker.TIFGTC, o.TimeInForce)
	assert.Equal(t, testClock, o.CreatedAt)
	require.NotNil(t, o.SubmittedAt)
	require.NotNil(t, o.FilledAt)
	assert.Equal(t, testClock, *o.FilledAt)

	// Reserved at ask, filled at ask: the true-up nets to zero and the
	// account pays exactly quantity times price.
	assertDecimal(t, "500", f.capital(t, acct.ID))

	pos := f.position(t, acct.ID, "AAPL")
	require.NotNil(t, pos)
	assertDecimal(t, "5", pos.Quantity)
	assertDecimal(t, "0", pos.ReservedQuantity)
	assertDecimal(t, "100", pos.AvgCostBasis)

	execs, err := f.svc.GetExecutions(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assertDecimal(t, "5", execs[0].Quantity)
	assertDecimal(t, "100", execs[0].Price)
	assert.Equal(t, "SIM", execs[0].Venue)

	assert.Equal(t, []string{"account_opened", "order_placed", "order_filled"}, f.sink.Kinds())
}

func TestMarketSellLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acct := f.openAccount(t, "10000")
	f.marketBuy(t, acct.ID, "AAPL", "10")
	assertDecimal(t, "9000", f.capital(t, acct.ID))

	sell, err := f.svc.PlaceOrder(ctx, acct.ID, broker.PlaceOrderRequest{
		Symbol:   "AAPL",
		Side:     broker.SideSell,
		Type:     broker.TypeMarket,
		Quantity: dec("4"),
	})
	require.NoError(t, err)
	assert.Equal(t, broker.StatusFilled, sell.Status)
	assertDecimal(t, "99", sell.AvgFillPrice)

	// Proceeds at bid: 9000 + 4*99.
	assertDecimal(t, "9396", f.capital(t, acct.ID))
	pos := f.position(t, acct.ID, "AAPL")
	require.NotNil(t, pos)
	assertDecimal(t, "6", pos.Quantity)
	assertDecimal(t, "100", pos.AvgCostBasis, "selling must not rewrite cost basis")

	// Selling the rest deletes the position row.
	_, err = f.svc.PlaceOrder(ctx, acct.ID, broker.PlaceOrderRequest{
		Symbol:   "AAPL",
		Side:     broker.SideSell,
		Type:     broker.TypeMarket,
		Quantity: dec("6"),
	})
	require.NoError(t, err)
	assertDecimal(t, "9990", f.capital(t, acct.ID))
	assert.Nil(t, f.position(t, acct.ID, "AAPL"))
}

func TestBuyAveragesCostBasis(t *testing.T) {
	f := newFixture(t)
	acct := f.openAccount(t, "10000")

	f.marketBuy(t, acct.ID, "AAPL", "10")
	f.quotes.SetQuote("AAPL", dec("119"), dec("120"), dec("120"))
	f.marketBuy(t, acct.ID, "AAPL", "10")

	pos := f.position(t, acct.ID, "AAPL")
	require.NotNil(t, pos)
	assertDecimal(t, "20", pos.Quantity)
	assertDecimal(t, "110", pos.AvgCostBasis)
	assertDecimal(t, "7800", f.capital(t, acct.ID))
}

func TestLimitBuyRestsAndReservesAtLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.quotes.SetQuote("AAPL", dec("94"), dec("95"), dec("95"))
	acct := f.openAccount(t, "1000")

	o, err := f.svc.PlaceOrder(ctx, acct.ID, broker.PlaceOrderRequest{
		Symbol:     "AAPL",
		Side:       broker.SideBuy,
		Type:       broker.TypeLimit,
		Quantity:   dec("4"),
		LimitPrice: decp("90"),
	})
	require.NoError(t, err)

	assert.Equal(t, broker.StatusPending, o.Status)
	assert.Nil(t, o.SubmittedAt)
	assertDecimal(t, "90", o.ReservedUnitCost, "reservation basis is the limit price, not the ask")
	assertDecimal(t, "640", f.capital(t, acct.ID))

	pending := broker.StatusPending
	orders, err := f.svc.GetOrders(ctx, acct.ID, &pending)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, o.ID, orders[0].ID)
}

func TestPlaceOrderRejectionsPersistNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acct := f.openAccount(t, "1000")

	sentinelCases := []struct {
		name    string
		req     broker.PlaceOrderRequest
		wantErr error
	}{
		{
			"malformed symbol",
			broker.PlaceOrderRequest{Symbol: "ba$d", Side: broker.SideBuy, Type: broker.TypeMarket, Quantity: dec("1")},
			broker.ErrInvalidSymbol,
		},
		{
			"unquoted symbol",
			broker.PlaceOrderRequest{Symbol: "MSFT", Side: broker.SideBuy, Type: broker.TypeMarket, Quantity: dec("1")},
			broker.ErrInvalidSymbol,
		},
		{
			"zero quantity",
			broker.PlaceOrderRequest{Symbol: "AAPL", Side: broker.SideBuy, Type: broker.TypeMarket, Quantity: dec("0")},
			broker.ErrInvalidQuantity,
		},
		{
			"negative quantity",
			broker.PlaceOrderRequest{Symbol: "AAPL", Side: broker.SideBuy, Type: broker.TypeMarket, Quantity: dec("-3")},
			broker.ErrInvalidQuantity,
		},
		{
			"limit without limit price",
			broker.PlaceOrderRequest{Symbol: "AAPL", Side: broker.SideBuy, Type: broker.TypeLimit, Quantity: dec("1")},
			broker.ErrMissingPrice,
		},
		{
			"stop without stop price",
			broker.PlaceOrderRequest{Symbol: "AAPL", Side: broker.SideSell, Type: broker.TypeStop, Quantity: dec("1")},
			broker.ErrMissingPrice,
		},
		{
			"stop limit without limit price",
			broker.PlaceOrderRequest{Symbol: "AAPL", Side: broker.SideBuy, Type: broker.TypeStopLimit, Quantity: dec("1"), StopPrice: decp("105")},
			broker.ErrMissingPrice,
		},
		{
			"insufficient funds",
			broker.PlaceOrderRequest{Symbol: "AAPL", Side: broker.SideBuy, Type: broker.TypeMarket, Quantity: dec("11")},
			broker.ErrInsufficientFunds,
		},
		{
			"sell without position",
			broker.PlaceOrderRequest{Symbol: "AAPL", Side: broker.SideSell, Type: broker.TypeMarket, Quantity: dec("1")},
			broker.ErrPositionNotFound,
		},
	}
	for _, tc := range sentinelCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.PlaceOrder(ctx, acct.ID, tc.req)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}

	validationCases := []struct {
		name string
		req  broker.PlaceOrderRequest
	}{
		{
			"market with limit price",
			broker.PlaceOrderRequest{Symbol: "AAPL", Side: broker.SideBuy, Type: broker.TypeMarket, Quantity: dec("1"), LimitPrice: decp("90")},
		},
		{
			"limit with stop price",
			broker.PlaceOrderRequest{Symbol: "AAPL", Side: broker.SideBuy, Type: broker.TypeLimit, Quantity: dec("1"), LimitPrice: decp("90"), StopPrice: decp("85")},
		},
		{
			"unknown side",
			broker.PlaceOrderRequest{Symbol: "AAPL", Side: "hold", Type: broker.TypeMarket, Quantity: dec("1")},
		},
		{
			"unknown order type",
			broker.PlaceOrderRequest{Symbol: "AAPL", Side: broker.SideBuy, Type: "iceberg", Quantity: dec("1")},
		},
		{
			"unknown time in force",
			broker.PlaceOrderRequest{Symbol: "AAPL", Side: broker.SideBuy, Type: broker.TypeMarket, Quantity: dec("1"), TimeInForce: "fok"},
		},
		{
			"zero limit price",
			broker.PlaceOrderRequest{Symbol: "AAPL", Side: broker.SideBuy, Type: broker.TypeLimit, Quantity: dec("1"), LimitPrice: decp("0")},
		},
	}
	for _, tc := range validationCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.PlaceOrder(ctx, acct.ID, tc.req)
			var ve *broker.ValidationError
			require.ErrorAs(t, err, &ve)
		})
	}

	// None of the rejections may leave an order row or touch capital.
	orders, err := f.svc.GetOrders(ctx, acct.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assertDecimal(t, "1000", f.capital(t, acct.ID))
}

func TestSellReservationTracksSellable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acct := f.openAccount(t, "10000")
	f.marketBuy(t, acct.ID, "AAPL", "10")

	_, err := f.svc.PlaceOrder(ctx, acct.ID, broker.PlaceOrderRequest{
		Symbol: "AAPL", Side: broker.SideSell, Type: broker.TypeLimit, Quantity: dec("11"), LimitPrice: decp("150"),
	})
	require.ErrorIs(t, err, broker.ErrInsufficientShares)

	_, err = f.svc.PlaceOrder(ctx, acct.ID, broker.PlaceOrderRequest{
		Symbol: "AAPL", Side: broker.SideSell, Type: broker.TypeLimit, Quantity: dec("7"), LimitPrice: decp("150"),
	})
	require.NoError(t, err)
	pos := f.position(t, acct.ID, "AAPL")
	require.NotNil(t, pos)
	assertDecimal(t, "7", pos.ReservedQuantity)

	// Only 3 sellable shares remain.
	_, err = f.svc.PlaceOrder(ctx, acct.ID, broker.PlaceOrderRequest{
		Symbol: "AAPL", Side: broker.SideSell, Type: broker.TypeLimit, Quantity: dec("4"), LimitPrice: decp("150"),
	})
	require.ErrorIs(t, err, broker.ErrInsufficientShares)
	pos = f.position(t, acct.ID, "AAPL")
	assertDecimal(t, "7", pos.ReservedQuantity, "failed placement must not leak reservation")
}

func TestCancelRestingBuyRefundsEstimate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.quotes.SetQuote("AAPL", dec("94"), dec("95"), dec("95"))
	acct := f.openAccount(t, "1000")

	o, err := f.svc.PlaceOrder(ctx, acct.ID, broker.PlaceOrderRequest{
		Symbol: "AAPL", Side: broker.SideBuy, Type: broker.TypeLimit, Quantity: dec("4"), LimitPrice: decp("90"),
	})
	require.NoError(t, err)
	assertDecimal(t, "640", f.capital(t, acct.ID))

	cancelled, err := f.svc.CancelOrder(ctx, acct.ID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, broker.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, testClock, *cancelled.CancelledAt)
	assertDecimal(t, "1000", f.capital(t, acct.ID))

	// A second cancel must not release the reservation again.
	_, err = f.svc.CancelOrder(ctx, acct.ID, o.ID)
	require.ErrorIs(t, err, broker.ErrInvalidStateTransition)
	assertDecimal(t, "1000", f.capital(t, acct.ID))

	assert.Contains(t, f.sink.Kinds(), "order_cancelled")
}

func TestCancelRestingSellReleasesShares(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acct := f.openAccount(t, "10000")
	f.marketBuy(t, acct.ID, "AAPL", "10")

	o, err := f.svc.PlaceOrder(ctx, acct.ID, broker.PlaceOrderRequest{
		Symbol: "AAPL", Side: broker.SideSell, Type: broker.TypeLimit, Quantity: dec("4"), LimitPrice: decp("150"),
	})
	require.NoError(t, err)
	pos := f.position(t, acct.ID, "AAPL")
	assertDecimal(t, "4", pos.ReservedQuantity)

	_, err = f.svc.CancelOrder(ctx, acct.ID, o.ID)
	require.NoError(t, err)
	pos = f.position(t, acct.ID, "AAPL")
	assertDecimal(t, "0", pos.ReservedQuantity)
	assertDecimal(t, "10", pos.Quantity)
	assertDecimal(t, "9000", f.capital(t, acct.ID), "cancelling a sell never moves capital")
}

func TestCancelGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acct := f.openAccount(t, "10000")
	other := f.openAccount(t, "1000")

	filled := f.marketBuy(t, acct.ID, "AAPL", "1")
	_, err := f.svc.CancelOrder(ctx, acct.ID, filled.ID)
	require.ErrorIs(t, err, broker.ErrInvalidStateTransition)

	_, err = f.svc.CancelOrder(ctx, acct.ID, "no-such-order")
	require.ErrorIs(t, err, broker.ErrOrderNotFound)

	resting, err := f.svc.PlaceOrder(ctx, acct.ID, broker.PlaceOrderRequest{
		Symbol: "AAPL", Side: broker.SideBuy, Type: broker.TypeLimit, Quantity: dec("1"), LimitPrice: decp("90"),
	})
	require.NoError(t, err)
	_, err = f.svc.CancelOrder(ctx, other.ID, resting.ID)
	require.ErrorIs(t, err, broker.ErrOrderNotFound, "orders are invisible across accounts")
}

func TestCancelPartiallyFilledBuyRefundsRemainder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.quotes.SetQuote("AAPL", dec("94"), dec("95"), dec("95"))
	acct := f.openAccount(t, "10000")

	o, err := f.svc.PlaceOrder(ctx, acct.ID, broker.PlaceOrderRequest{
		Symbol: "AAPL", Side: broker.SideBuy, Type: broker.TypeLimit, Quantity: dec("10"), LimitPrice: decp("90"),
	})
	require.NoError(t, err)
	assertDecimal(t, "9100", f.capital(t, acct.ID))

	// Mark the order partially filled in place. Only the refund math is
	// under test here, so the capital side of the fill is left alone.
	err = f.store.WithinTx(ctx, func(tx broker.Tx) error {
		cur, err := tx.OrderForUpdate(ctx, o.ID)
		if err != nil {
			return err
		}
		cur.FilledQuantity = dec("4")
		cur.Status = broker.StatusPartial
		return tx.SaveOrder(ctx, cur)
	})
	require.NoError(t, err)

	cancelled, err := f.svc.CancelOrder(ctx, acct.ID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, broker.StatusCancelled, cancelled.Status)
	assertDecimal(t, "4", cancelled.FilledQuantity)

	// Refund covers only the unfilled 6 shares at the reservation basis.
	assertDecimal(t, "9640", f.capital(t, acct.ID))
}

func TestStopBuyTrueUp(t *testing.T) {
	t.Run("costlier fill debits the difference", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		f.quotes.SetQuote("AAPL", dec("98"), dec("99"), dec("99"))
		acct := f.openAccount(t, "1000")

		o, err := f.svc.PlaceOrder(ctx, acct.ID, broker.PlaceOrderRequest{
			Symbol: "AAPL", Side: broker.SideBuy, Type: broker.TypeStop, Quantity: dec("10"), StopPrice: decp("105"),
		})
		require.NoError(t, err)
		assertDecimal(t, "99", o.ReservedUnitCost, "stop buys reserve at the placement ask")
		assertDecimal(t, "10", f.capital(t, acct.ID))

		require.NoError(t, f.svc.FillOpenOrder(ctx, o.ID, dec("100")))
		assertDecimal(t, "0", f.capital(t, acct.ID))

		got, err := f.svc.GetOrder(ctx, acct.ID, o.ID)
		require.NoError(t, err)
		assert.Equal(t, broker.StatusFilled, got.Status)
		assertDecimal(t, "100", got.AvgFillPrice)
	})

	t.Run("overdrawing fill rolls back whole", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		f.quotes.SetQuote("AAPL", dec("98"), dec("99"), dec("99"))
		acct := f.openAccount(t, "1000")

		o, err := f.svc.PlaceOrder(ctx, acct.ID, broker.PlaceOrderRequest{
			Symbol: "AAPL", Side: broker.SideBuy, Type: broker.TypeStop, Quantity: dec("10"), StopPrice: decp("105"),
		})
		require.NoError(t, err)

		err = f.svc.FillOpenOrder(ctx, o.ID, dec("105"))
		require.ErrorIs(t, err, broker.ErrInsufficientFunds)

		// Nothing from the aborted fill may survive: no execution, no
		// position, order still open, capital untouched.
		got, err := f.svc.GetOrder(ctx, acct.ID, o.ID)
		require.NoError(t, err)
		assert.Equal(t, broker.StatusPending, got.Status)
		assertDecimal(t, "0", got.FilledQuantity)
		execs, err := f.svc.GetExecutions(ctx, o.ID)
		require.NoError(t, err)
		assert.Empty(t, execs)
		assert.Nil(t, f.position(t, acct.ID, "AAPL"))
		assertDecimal(t, "10", f.capital(t, acct.ID))
	})
}

func TestFillOpenOrderGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acct := f.openAccount(t, "10000")

	err := f.svc.FillOpenOrder(ctx, "no-such-order", dec("100"))
	require.ErrorIs(t, err, broker.ErrOrderNotFound)

	filled := f.marketBuy(t, acct.ID, "AAPL", "1")
	err = f.svc.FillOpenOrder(ctx, filled.ID, dec("100"))
	require.ErrorIs(t, err, broker.ErrInvalidStateTransition)

	resting, err := f.svc.PlaceOrder(ctx, acct.ID, broker.PlaceOrderRequest{
		Symbol: "AAPL", Side: broker.SideBuy, Type: broker.TypeLimit, Quantity: dec("1"), LimitPrice: decp("90"),
	})
	require.NoError(t, err)
	err = f.svc.FillOpenOrder(ctx, resting.ID, dec("0"))
	require.ErrorIs(t, err, broker.ErrQuoteUnavailable)
}

func TestReadScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acct := f.openAccount(t, "10000")
	other := f.openAccount(t, "1000")
	o := f.marketBuy(t, acct.ID, "AAPL", "1")

	_, err := f.svc.GetOrder(ctx, other.ID, o.ID)
	require.ErrorIs(t, err, broker.ErrOrderNotFound)

	_, err = f.svc.GetExecutions(ctx, "no-such-order")
	require.ErrorIs(t, err, broker.ErrOrderNotFound)

	_, err = f.svc.GetAccount(ctx, "no-such-account")
	require.ErrorIs(t, err, broker.ErrAccountNotFound)

	bogus := broker.OrderStatus("parked")
	_, err = f.svc.GetOrders(ctx, acct.ID, &bogus)
	var ve *broker.ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = f.svc.GetQuote(ctx, "ba$d")
	require.ErrorIs(t, err, broker.ErrInvalidSymbol)

	q, err := f.svc.GetQuote(ctx, "aapl")
	require.NoError(t, err)
	require.NotNil(t, q, "lookup must normalize the symbol first")
	assertDecimal(t, "100", q.Ask)
}

func TestNotifierReceivesFillAndCancel(t *testing.T) {
	n := &chanNotifier{ch: make(chan string, 4)}
	f := newFixture(t, broker.WithNotifier(n))
	ctx := context.Background()
	acct := f.openAccount(t, "10000")

	f.marketBuy(t, acct.ID, "AAPL", "2")
	msg := n.wait(t)
	assert.Contains(t, msg, "AAPL")
	assert.Contains(t, msg, "buy")

	resting, err := f.svc.PlaceOrder(ctx, acct.ID, broker.PlaceOrderRequest{
		Symbol: "AAPL", Side: broker.SideBuy, Type: broker.TypeLimit, Quantity: dec("1"), LimitPrice: decp("90"),
	})
	require.NoError(t, err)
	_, err = f.svc.CancelOrder(ctx, acct.ID, resting.ID)
	require.NoError(t, err)
	msg = n.wait(t)
	assert.Contains(t, msg, "cancelled")
}

func TestServiceOptions(t *testing.T) {
	f := newFixture(t,
		broker.WithVenue("ARCA"),
		broker.WithDefaultTimeInForce(broker.TIFDay),
	)
	ctx := context.Background()
	acct := f.openAccount(t, "10000")

	o := f.marketBuy(t, acct.ID, "AAPL", "1")
	assert.Equal(t, broker.TIFDay, o.TimeInForce)

	execs, err := f.svc.GetExecutions(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, "ARCA", execs[0].Venue)

	explicit, err := f.svc.PlaceOrder(ctx, acct.ID, broker.PlaceOrderRequest{
		Symbol: "AAPL", Side: broker.SideBuy, Type: broker.TypeMarket, Quantity: dec("1"), TimeInForce: broker.TIFGTC,
	})
	require.NoError(t, err)
	assert.Equal(t, broker.TIFGTC, explicit.TimeInForce)
}

func TestOpenAccountRejectsNegativeCapital(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.OpenAccount(context.Background(), "broke", dec("-1"))
	var ve *broker.ValidationError
	require.ErrorAs(t, err, &ve)
}

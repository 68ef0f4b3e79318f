package broker

import (
	"context"
	"time"

	"paperbroker/internal/logger"
	"paperbroker/internal/market"
	"paperbroker/internal/scheduler"

	"github.com/shopspring/decimal"
)

// MatcherConfig tunes the background scan. Interval is how often open
// orders are re-evaluated; BatchSize caps orders per scan (0 = no cap).
type MatcherConfig struct {
	Interval  time.Duration
	BatchSize int
}

// Matcher periodically re-evaluates resting limit/stop/stop_limit
// orders against current quotes and fills the ones whose trigger
// condition is met. It is the only writer besides live API calls, and
// it competes with them purely through row locks; a fill that loses a
// race is logged and retried on the next scan.
type Matcher struct {
	svc      *Service
	interval time.Duration
	batch    int
}

func NewMatcher(svc *Service, cfg MatcherConfig) *Matcher {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	batch := cfg.BatchSize
	if batch < 0 {
		batch = 0
	}
	return &Matcher{svc: svc, interval: interval, batch: batch}
}

// Run blocks scanning until ctx is cancelled. An in-flight scan
// finishes (or rolls back its current fill) before Run returns, so
// shutdown never kills a transaction mid-write.
func (m *Matcher) Run(ctx context.Context) error {
	logger.Infof("matcher: starting, interval=%s batch=%d", m.interval, m.batch)
	sched := scheduler.NewAlignedScheduler(ctx, m.interval, 0)
	sched.RunImmediately = true
	sched.Start(func() {
		m.ScanOnce(ctx)
	})
	logger.Infof("matcher: stopped")
	return nil
}

// ScanOnce walks open matchable orders oldest-first and attempts to
// fill each triggered one in its own transaction. One order's failure
// never aborts the rest of the scan. Returns the number of fills.
func (m *Matcher) ScanOnce(ctx context.Context) int {
	orders, err := m.svc.store.ListOpenMatchable(ctx, m.batch)
	if err != nil {
		logger.Errorf("matcher: list open orders: %v", err)
		return 0
	}
	if len(orders) == 0 {
		return 0
	}

	filled := 0
	for i := range orders {
		if ctx.Err() != nil {
			logger.Infof("matcher: scan interrupted, %d orders left for next pass", len(orders)-i)
			break
		}
		o := &orders[i]
		quote, err := m.svc.quotes.GetQuote(ctx, o.Symbol)
		if err != nil {
			logger.Debugf("matcher: quote %s for order %s: %v", o.Symbol, o.ID, err)
			continue
		}
		if quote == nil {
			// Symbol vanished from the feed; the order stays open.
			continue
		}
		price, ok := triggerPrice(o, quote)
		if !ok {
			continue
		}
		if err := m.svc.FillOpenOrder(ctx, o.ID, price); err != nil {
			logger.Warnf("matcher: fill order %s (%s %s %s): %v", o.ID, o.Side, o.Quantity, o.Symbol, err)
			continue
		}
		filled++
	}
	if filled > 0 {
		logger.Infof("matcher: scan filled %d of %d open orders", filled, len(orders))
	}
	return filled
}

// triggerPrice applies the static trigger rules and returns the price
// the fill would execute at:
//
//	limit buy   ask <= limit               -> ask
//	limit sell  bid >= limit               -> bid
//	stop  buy   ask >= stop                -> ask (breakout entry)
//	stop  sell  bid <= stop                -> bid (stop loss)
//	stop_limit  stop rule AND limit bound  -> ask/bid
//
// stop_limit is evaluated as a single static conjunction per scan, not
// a two-phase armed state.
func triggerPrice(o *Order, q *market.Quote) (decimal.Decimal, bool) {
	switch o.Type {
	case TypeLimit:
		if o.LimitPrice == nil {
			return decimal.Decimal{}, false
		}
		if o.Side == SideBuy && q.Ask.LessThanOrEqual(*o.LimitPrice) {
			return q.Ask, true
		}
		if o.Side == SideSell && q.Bid.GreaterThanOrEqual(*o.LimitPrice) {
			return q.Bid, true
		}
	case TypeStop:
		if o.StopPrice == nil {
			return decimal.Decimal{}, false
		}
		if o.Side == SideBuy && q.Ask.GreaterThanOrEqual(*o.StopPrice) {
			return q.Ask, true
		}
		if o.Side == SideSell && q.Bid.LessThanOrEqual(*o.StopPrice) {
			return q.Bid, true
		}
	case TypeStopLimit:
		if o.StopPrice == nil || o.LimitPrice == nil {
			return decimal.Decimal{}, false
		}
		if o.Side == SideBuy &&
			q.Ask.GreaterThanOrEqual(*o.StopPrice) &&
			q.Ask.LessThanOrEqual(*o.LimitPrice) {
			return q.Ask, true
		}
		if o.Side == SideSell &&
			q.Bid.LessThanOrEqual(*o.StopPrice) &&
			q.Bid.GreaterThanOrEqual(*o.LimitPrice) {
			return q.Bid, true
		}
	}
	return decimal.Decimal{}, false
}

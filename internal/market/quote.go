package market

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time snapshot of the market for one symbol.
type Quote struct {
	Symbol string
	Bid    decimal.Decimal
	Ask    decimal.Decimal
	Last   decimal.Decimal
	At     time.Time
}

// Provider supplies current quotes. Implementations must treat an
// unknown symbol as (nil, nil): "no such instrument" is not an error,
// it is the answer. Errors mean the feed itself failed. GetQuote must
// stay cheap: the order matcher polls it once per open order per scan.
type Provider interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
}

// StaticProvider serves quotes from an in-memory table. Used by tests
// and by the "static" feed source, where the table comes from config.
type StaticProvider struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{quotes: make(map[string]Quote)}
}

func (p *StaticProvider) SetQuote(symbol string, bid, ask, last decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quotes[symbol] = Quote{Symbol: symbol, Bid: bid, Ask: ask, Last: last, At: time.Now()}
}

func (p *StaticProvider) Remove(symbol string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.quotes, symbol)
}

func (p *StaticProvider) GetQuote(_ context.Context, symbol string) (*Quote, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	q, ok := p.quotes[symbol]
	if !ok {
		return nil, nil
	}
	q.At = time.Now()
	out := q
	return &out, nil
}

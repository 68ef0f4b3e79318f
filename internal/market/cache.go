package market

import (
	"context"
	"sync"
	"time"
)

// CachedProvider memoizes quotes for a short TTL so a slow upstream
// (REST feed) is hit at most once per symbol per window, no matter how
// many open orders the matcher walks.
type CachedProvider struct {
	inner Provider
	ttl   time.Duration
	nowFn func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	quote   *Quote // nil is cached too: unknown symbols stay unknown for a TTL
	fetched time.Time
}

func NewCachedProvider(inner Provider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = time.Second
	}
	return &CachedProvider{
		inner:   inner,
		ttl:     ttl,
		nowFn:   time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (p *CachedProvider) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	now := p.nowFn()

	p.mu.Lock()
	if e, ok := p.entries[symbol]; ok && now.Sub(e.fetched) < p.ttl {
		q := e.quote
		p.mu.Unlock()
		if q == nil {
			return nil, nil
		}
		out := *q
		return &out, nil
	}
	p.mu.Unlock()

	q, err := p.inner.GetQuote(ctx, symbol)
	if err != nil {
		// Feed failures are not cached; the next caller retries.
		return nil, err
	}

	p.mu.Lock()
	p.entries[symbol] = cacheEntry{quote: q, fetched: now}
	p.mu.Unlock()

	if q == nil {
		return nil, nil
	}
	out := *q
	return &out, nil
}

package market

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type countingProvider struct {
	inner *StaticProvider
	calls int
}

func (c *countingProvider) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	c.calls++
	return c.inner.GetQuote(ctx, symbol)
}

func TestCachedProviderServesWithinTTL(t *testing.T) {
	static := NewStaticProvider()
	static.SetQuote("AAPL", decimal.NewFromInt(99), decimal.NewFromInt(100), decimal.NewFromInt(100))
	upstream := &countingProvider{inner: static}

	now := time.Unix(1_700_000_000, 0)
	cached := NewCachedProvider(upstream, 5*time.Second)
	cached.nowFn = func() time.Time { return now }

	q1, err := cached.GetQuote(context.Background(), "AAPL")
	assert.NoError(t, err)
	assert.NotNil(t, q1)
	q2, err := cached.GetQuote(context.Background(), "AAPL")
	assert.NoError(t, err)
	assert.NotNil(t, q2)
	assert.Equal(t, 1, upstream.calls)

	now = now.Add(6 * time.Second)
	_, err = cached.GetQuote(context.Background(), "AAPL")
	assert.NoError(t, err)
	assert.Equal(t, 2, upstream.calls)
}

func TestCachedProviderCachesUnknownSymbol(t *testing.T) {
	upstream := &countingProvider{inner: NewStaticProvider()}
	now := time.Unix(1_700_000_000, 0)
	cached := NewCachedProvider(upstream, time.Minute)
	cached.nowFn = func() time.Time { return now }

	q, err := cached.GetQuote(context.Background(), "NOPE")
	assert.NoError(t, err)
	assert.Nil(t, q)
	q, err = cached.GetQuote(context.Background(), "NOPE")
	assert.NoError(t, err)
	assert.Nil(t, q)
	assert.Equal(t, 1, upstream.calls)
}

func TestCachedProviderReturnsCopies(t *testing.T) {
	static := NewStaticProvider()
	static.SetQuote("MSFT", decimal.NewFromInt(10), decimal.NewFromInt(11), decimal.NewFromInt(10))
	cached := NewCachedProvider(static, time.Minute)

	q1, err := cached.GetQuote(context.Background(), "MSFT")
	assert.NoError(t, err)
	q1.Bid = decimal.NewFromInt(-1)

	q2, err := cached.GetQuote(context.Background(), "MSFT")
	assert.NoError(t, err)
	assert.True(t, q2.Bid.Equal(decimal.NewFromInt(10)), "cache entry must not alias caller copies")
}

package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"paperbroker/internal/pkg/circuit"
	"paperbroker/internal/pkg/symbol"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/shopspring/decimal"
)

const binanceInvalidSymbolCode = -1121

// BinanceConfig configures the Binance-backed quote provider.
type BinanceConfig struct {
	RESTBaseURL      string
	HTTPTimeout      time.Duration
	BreakerThreshold int
	BreakerTimeout   time.Duration
}

func (c BinanceConfig) withDefaults() BinanceConfig {
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	if c.BreakerThreshold <= 0 {
		c.BreakerThreshold = 5
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = 30 * time.Second
	}
	return c
}

// BinanceProvider serves live quotes from Binance spot book tickers.
// It lets the simulator paper-trade against real market prices. A
// circuit breaker keeps a flapping feed from stalling every matcher
// scan on HTTP timeouts.
type BinanceProvider struct {
	client  *binance.Client
	breaker *circuit.Breaker
}

func NewBinanceProvider(cfg BinanceConfig) *BinanceProvider {
	final := cfg.withDefaults()
	client := binance.NewClient("", "")
	if base := strings.TrimSpace(final.RESTBaseURL); base != "" {
		client.BaseURL = base
	}
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &BinanceProvider{
		client:  client,
		breaker: circuit.New("binance-quotes", final.BreakerThreshold, final.BreakerTimeout),
	}
}

func (p *BinanceProvider) GetQuote(ctx context.Context, sym string) (*Quote, error) {
	if !p.breaker.Allow() {
		return nil, fmt.Errorf("binance quote feed circuit open")
	}
	pair := symbol.ToBinance(sym)
	if pair == "" {
		return nil, nil
	}

	books, err := p.client.NewListBookTickersService().Symbol(pair).Do(ctx)
	if err != nil {
		if isUnknownSymbol(err) {
			p.breaker.RecordSuccess()
			return nil, nil
		}
		p.breaker.RecordFailure()
		return nil, fmt.Errorf("binance book ticker %s: %w", pair, err)
	}
	if len(books) == 0 || books[0] == nil {
		p.breaker.RecordSuccess()
		return nil, nil
	}
	book := books[0]

	bid, err := decimal.NewFromString(book.BidPrice)
	if err != nil {
		p.breaker.RecordFailure()
		return nil, fmt.Errorf("binance bid price %q: %w", book.BidPrice, err)
	}
	ask, err := decimal.NewFromString(book.AskPrice)
	if err != nil {
		p.breaker.RecordFailure()
		return nil, fmt.Errorf("binance ask price %q: %w", book.AskPrice, err)
	}

	last := bid.Add(ask).Div(decimal.NewFromInt(2))
	if prices, err := p.client.NewListPricesService().Symbol(pair).Do(ctx); err == nil && len(prices) > 0 && prices[0] != nil {
		if parsed, perr := decimal.NewFromString(prices[0].Price); perr == nil {
			last = parsed
		}
	}

	p.breaker.RecordSuccess()
	return &Quote{Symbol: sym, Bid: bid, Ask: ask, Last: last, At: time.Now()}, nil
}

func isUnknownSymbol(err error) bool {
	var apiErr *common.APIError
	return errors.As(err, &apiErr) && apiErr.Code == binanceInvalidSymbolCode
}

package app

import (
	"context"
	"fmt"
	"time"

	"paperbroker/internal/broker"
	"paperbroker/internal/config"
	"paperbroker/internal/logger"
	"paperbroker/internal/market"
	"paperbroker/internal/notify"
	"paperbroker/internal/scheduler"
	"paperbroker/internal/store/journal"
	"paperbroker/internal/store/sqlite"
	apihttp "paperbroker/internal/transport/http/api"
)

// AppBuilder assembles the application from config. Each component is
// built by an injectable constructor so tests can swap in fakes
// without touching the wiring order.
type AppBuilder struct {
	cfg *config.Config

	storeFn    func(config.DatabaseConfig) (*sqlite.Store, error)
	journalFn  func(string) (*journal.Journal, error)
	quotesFn   func(config.QuotesConfig) (market.Provider, error)
	notifierFn func(config.NotifyConfig) broker.Notifier
	httpFn     func(apihttp.ServerConfig) (*apihttp.Server, error)
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:        cfg,
		storeFn:    buildStore,
		journalFn:  journal.New,
		quotesFn:   buildQuoteProvider,
		notifierFn: buildNotifier,
		httpFn:     buildHTTPServer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	st, err := b.storeFn(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Infof("store ready: driver=%s", cfg.Database.Driver)

	var events *journal.Journal
	if cfg.Database.JournalPath != "" {
		events, err = b.journalFn(cfg.Database.JournalPath)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("open journal: %w", err)
		}
	}

	quotes, err := b.quotesFn(cfg.Quotes)
	if err != nil {
		closeAll(events, st)
		return nil, fmt.Errorf("build quote provider: %w", err)
	}
	logger.Infof("quote provider ready: source=%s cache_ttl=%ds", cfg.Quotes.Source, cfg.Quotes.CacheTTLSeconds)

	svcOpts := []broker.ServiceOption{
		broker.WithVenue(cfg.Trading.Venue),
		broker.WithDefaultTimeInForce(broker.TimeInForce(cfg.Trading.DefaultTimeInForce)),
	}
	if events != nil {
		svcOpts = append(svcOpts, broker.WithEventSink(events))
	}
	if n := b.notifierFn(cfg.Notify); n != nil {
		svcOpts = append(svcOpts, broker.WithNotifier(n))
		logger.Infof("telegram notifications enabled")
	}
	svc := broker.NewService(st, quotes, svcOpts...)

	if cfg.Seed.Path != "" {
		seeded, err := seedAccounts(ctx, st, cfg.Seed.Path)
		if err != nil {
			closeAll(events, st)
			return nil, fmt.Errorf("seed accounts: %w", err)
		}
		if seeded > 0 {
			logger.Infof("seeded %d new accounts from %s", seeded, cfg.Seed.Path)
		}
	}

	var matcher *broker.Matcher
	if cfg.Matcher.Enabled {
		interval, ok := scheduler.ParseIntervalDuration(cfg.Matcher.ScanInterval)
		if !ok {
			interval = 2 * time.Second
		}
		matcher = broker.NewMatcher(svc, broker.MatcherConfig{
			Interval:  interval,
			BatchSize: cfg.Matcher.BatchSize,
		})
	}

	var httpSrv *apihttp.Server
	if cfg.Server.Enabled {
		httpSrv, err = b.httpFn(apihttp.ServerConfig{
			Addr:    cfg.Server.ListenAddr,
			Service: svc,
			Journal: events,
		})
		if err != nil {
			closeAll(events, st)
			return nil, fmt.Errorf("build http server: %w", err)
		}
	}

	return &App{
		cfg:     cfg,
		store:   st,
		events:  events,
		service: svc,
		matcher: matcher,
		httpSrv: httpSrv,
	}, nil
}

func buildStore(cfg config.DatabaseConfig) (*sqlite.Store, error) {
	return sqlite.New(sqlite.Config{
		Driver:       cfg.Driver,
		Path:         cfg.Path,
		DSN:          cfg.DSN,
		MaxOpenConns: cfg.MaxOpenConns,
	})
}

// buildQuoteProvider picks the feed by config and wraps it in a TTL
// cache so matcher scans do not hammer the upstream source.
func buildQuoteProvider(cfg config.QuotesConfig) (market.Provider, error) {
	var inner market.Provider
	switch cfg.Source {
	case "static":
		inner = market.NewStaticProvider()
	case "file":
		feed, err := market.NewFileFeed(cfg.Path)
		if err != nil {
			return nil, err
		}
		inner = feed
	case "binance":
		inner = market.NewBinanceProvider(market.BinanceConfig{
			RESTBaseURL: cfg.Binance.RESTBaseURL,
			HTTPTimeout: time.Duration(cfg.Binance.TimeoutSeconds) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown quote source %q", cfg.Source)
	}
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		return inner, nil
	}
	return market.NewCachedProvider(inner, ttl), nil
}

func buildNotifier(cfg config.NotifyConfig) broker.Notifier {
	if !cfg.Telegram.Enabled {
		return nil
	}
	return notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
}

func buildHTTPServer(cfg apihttp.ServerConfig) (*apihttp.Server, error) {
	return apihttp.NewServer(cfg)
}

func closeAll(events *journal.Journal, st *sqlite.Store) {
	if events != nil {
		if err := events.Close(); err != nil {
			logger.Warnf("close journal: %v", err)
		}
	}
	if st != nil {
		if err := st.Close(); err != nil {
			logger.Warnf("close store: %v", err)
		}
	}
}

func WithStore(fn func(config.DatabaseConfig) (*sqlite.Store, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.storeFn = fn
		}
	}
}

func WithJournal(fn func(string) (*journal.Journal, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.journalFn = fn
		}
	}
}

func WithQuoteProvider(fn func(config.QuotesConfig) (market.Provider, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.quotesFn = fn
		}
	}
}

func WithNotifierBuilder(fn func(config.NotifyConfig) broker.Notifier) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.notifierFn = fn
		}
	}
}

func WithHTTPServer(fn func(apihttp.ServerConfig) (*apihttp.Server, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.httpFn = fn
		}
	}
}

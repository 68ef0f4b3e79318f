package app

import (
	"context"
	"fmt"

	"paperbroker/internal/broker"
	"paperbroker/internal/config"
	"paperbroker/internal/logger"
	"paperbroker/internal/store/journal"
	"paperbroker/internal/store/sqlite"
	apihttp "paperbroker/internal/transport/http/api"

	"golang.org/x/sync/errgroup"
)

// App owns the assembled components and their run/shutdown order.
type App struct {
	cfg     *config.Config
	store   *sqlite.Store
	events  *journal.Journal
	service *broker.Service
	matcher *broker.Matcher
	httpSrv *apihttp.Server
}

// NewApp builds the application from config (does not start it).
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run starts the HTTP server and the matcher loop and blocks until ctx
// is cancelled or one of them fails. Storage is closed on the way out.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.httpSrv == nil && a.matcher == nil {
		return fmt.Errorf("nothing to run: server and matcher are both disabled")
	}
	defer a.Close()

	group, ctx := errgroup.WithContext(ctx)

	if a.httpSrv != nil {
		group.Go(func() error {
			if err := a.httpSrv.Start(ctx); err != nil {
				return fmt.Errorf("http server error: %w", err)
			}
			return nil
		})
	}

	if a.matcher != nil {
		group.Go(func() error {
			return a.matcher.Run(ctx)
		})
	}

	return group.Wait()
}

// Close releases storage handles. Safe to call more than once.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			logger.Warnf("close journal: %v", err)
		}
		a.events = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warnf("close store: %v", err)
		}
		a.store = nil
	}
}

// Service exposes the broker engine (for test harnesses).
func (a *App) Service() *broker.Service {
	if a == nil {
		return nil
	}
	return a.service
}

package market

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"paperbroker/internal/logger"
	"paperbroker/internal/pkg/symbol"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// quoteRow is the on-disk shape of one symbol's quote.
type quoteRow struct {
	Bid  float64 `mapstructure:"bid"`
	Ask  float64 `mapstructure:"ask"`
	Last float64 `mapstructure:"last"`
}

type feedFile struct {
	Quotes map[string]quoteRow `mapstructure:"quotes"`
}

// FileFeed serves quotes from a YAML/JSON/TOML file and hot-reloads it
// on filesystem changes, so an operator can drive the simulator by
// editing the file while the process runs.
type FileFeed struct {
	path string
	v    *viper.Viper

	mu       sync.RWMutex
	quotes   map[string]Quote
	version  int64
	loadedAt time.Time
}

// NewFileFeed reads the quote file once and starts watching it.
func NewFileFeed(path string) (*FileFeed, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("quote file feed requires a path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	feed := &FileFeed{path: path, v: v}
	if err := feed.Reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := feed.Reload(); err != nil {
			logger.Errorf("quote file reload failed (%s): %v", evt.Name, err)
		}
	})
	v.WatchConfig()
	return feed, nil
}

// Reload re-reads the quote file and swaps the in-memory table.
func (f *FileFeed) Reload() error {
	if err := f.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read quote file failed: %w", err)
	}
	var file feedFile
	if err := f.v.Unmarshal(&file); err != nil {
		return fmt.Errorf("parse quote file failed: %w", err)
	}
	now := time.Now()
	table := make(map[string]Quote, len(file.Quotes))
	for raw, row := range file.Quotes {
		sym, err := symbol.Normalize(raw)
		if err != nil {
			logger.Warnf("quote file: skipping %q: %v", raw, err)
			continue
		}
		table[sym] = Quote{
			Symbol: sym,
			Bid:    decimal.NewFromFloat(row.Bid),
			Ask:    decimal.NewFromFloat(row.Ask),
			Last:   decimal.NewFromFloat(row.Last),
			At:     now,
		}
	}
	f.mu.Lock()
	f.quotes = table
	f.version++
	f.loadedAt = now
	version := f.version
	f.mu.Unlock()
	logger.Infof("quote file feed loaded %d symbols from %s (version %d)", len(table), filepath.Base(f.path), version)
	return nil
}

func (f *FileFeed) GetQuote(_ context.Context, sym string) (*Quote, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	q, ok := f.quotes[sym]
	if !ok {
		return nil, nil
	}
	out := q
	return &out, nil
}

// Version reports how many times the file has been (re)loaded.
func (f *FileFeed) Version() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.version
}

package config

import (
	"path/filepath"
	"strings"
)

const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultAppDataDir      = "data"
	defaultServerAddr      = ":8866"
	defaultDatabaseDriver  = "sqlite"
	defaultQuoteSource     = "file"
	defaultQuoteCacheTTL   = 2
	defaultBinanceREST     = "https://api.binance.com"
	defaultBinanceTimeout  = 10
	defaultMatcherInterval = "2s"
	defaultMatcherBatch    = 200
	defaultTradingVenue    = "SIM"
	defaultTradingTIF      = "gtc"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Server.applyDefaults(keys)
	c.Database.applyDefaults(keys)
	c.Quotes.applyDefaults(keys)
	c.Matcher.applyDefaults(keys)
	c.Trading.applyDefaults(keys)

	// Paths that hang off the data dir cannot be section-local consts.
	dataDir := c.App.DataDir
	if strings.TrimSpace(c.App.LogPath) == "" {
		c.App.LogPath = filepath.Join(dataDir, "logs", "paperbroker.log")
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		c.Database.Path = filepath.Join(dataDir, "paperbroker.db")
	}
	if strings.TrimSpace(c.Database.JournalPath) == "" {
		c.Database.JournalPath = filepath.Join(dataDir, "journal.db")
	}
	if strings.TrimSpace(c.Quotes.Path) == "" {
		c.Quotes.Path = filepath.Join(dataDir, "quotes.yaml")
	}
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.data_dir", &a.DataDir, defaultAppDataDir),
	)
}

func (s *ServerConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("server.enabled", &s.Enabled, true),
		stringFieldDefault("server.listen_addr", &s.ListenAddr, defaultServerAddr),
	)
}

func (d *DatabaseConfig) applyDefaults(keys keySet) {
	if d == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("database.driver", &d.Driver, defaultDatabaseDriver),
	)
	d.Driver = strings.ToLower(strings.TrimSpace(d.Driver))
	if d.MaxOpenConns < 0 {
		d.MaxOpenConns = 0
	}
}

func (q *QuotesConfig) applyDefaults(keys keySet) {
	if q == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("quotes.source", &q.Source, defaultQuoteSource),
		fieldDefault{
			key:   "quotes.cache_ttl_seconds",
			need:  func() bool { return q.CacheTTLSeconds <= 0 },
			apply: func() { q.CacheTTLSeconds = defaultQuoteCacheTTL },
		},
		stringFieldDefault("quotes.binance.rest_base_url", &q.Binance.RESTBaseURL, defaultBinanceREST),
		fieldDefault{
			key:   "quotes.binance.timeout_seconds",
			need:  func() bool { return q.Binance.TimeoutSeconds <= 0 },
			apply: func() { q.Binance.TimeoutSeconds = defaultBinanceTimeout },
		},
	)
	q.Source = strings.ToLower(strings.TrimSpace(q.Source))
}

func (m *MatcherConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("matcher.enabled", &m.Enabled, true),
		stringFieldDefault("matcher.scan_interval", &m.ScanInterval, defaultMatcherInterval),
		fieldDefault{
			key:   "matcher.batch_size",
			need:  func() bool { return m.BatchSize <= 0 },
			apply: func() { m.BatchSize = defaultMatcherBatch },
		},
	)
}

func (t *TradingConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("trading.venue", &t.Venue, defaultTradingVenue),
		stringFieldDefault("trading.default_time_in_force", &t.DefaultTimeInForce, defaultTradingTIF),
	)
	t.DefaultTimeInForce = strings.ToLower(strings.TrimSpace(t.DefaultTimeInForce))
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

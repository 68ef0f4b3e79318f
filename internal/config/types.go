package config

import "strings"

// Config is the whole simulator configuration.
type Config struct {
	App      AppConfig      `toml:"app"`
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Quotes   QuotesConfig   `toml:"quotes"`
	Matcher  MatcherConfig  `toml:"matcher"`
	Trading  TradingConfig  `toml:"trading"`
	Notify   NotifyConfig   `toml:"notify"`
	Seed     SeedConfig     `toml:"seed"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
	DataDir  string `toml:"data_dir"`
}

type ServerConfig struct {
	Enabled    bool   `toml:"enabled"`
	ListenAddr string `toml:"listen_addr"`
}

// DatabaseConfig selects the order store backend. sqlite is the
// self-contained default; mysql gives real row locks.
type DatabaseConfig struct {
	Driver       string `toml:"driver"` // "sqlite" | "mysql"
	Path         string `toml:"path"`
	DSN          string `toml:"dsn"`
	JournalPath  string `toml:"journal_path"`
	MaxOpenConns int    `toml:"max_open_conns"`
}

// QuotesConfig selects where the engine gets bid/ask/last from.
type QuotesConfig struct {
	Source          string        `toml:"source"` // "file" | "binance" | "static"
	Path            string        `toml:"path"`
	CacheTTLSeconds int           `toml:"cache_ttl_seconds"`
	Binance         BinanceConfig `toml:"binance"`
}

type BinanceConfig struct {
	RESTBaseURL    string `toml:"rest_base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type MatcherConfig struct {
	Enabled      bool   `toml:"enabled"`
	ScanInterval string `toml:"scan_interval"` // e.g. "2s", "1m"
	BatchSize    int    `toml:"batch_size"`
}

type TradingConfig struct {
	Venue              string `toml:"venue"`
	DefaultTimeInForce string `toml:"default_time_in_force"` // "day" | "gtc"
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

// SeedConfig points at a YAML file of accounts loaded at boot.
type SeedConfig struct {
	Path string `toml:"path"`
}

// keySet tracks which field paths were explicitly set in the files, so
// defaults never clobber an intentional zero value.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault is one default-value rule for applyFieldDefaults.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}

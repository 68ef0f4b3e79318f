package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Server.validate(); err != nil {
		return err
	}
	if err := c.Database.validate(); err != nil {
		return err
	}
	if err := c.Quotes.validate(); err != nil {
		return err
	}
	if err := c.Matcher.validate(); err != nil {
		return err
	}
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(a.LogLevel)) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("app.log_level must be debug|info|warn|error, got %q", a.LogLevel)
}

func (s *ServerConfig) validate() error {
	if s.Enabled && strings.TrimSpace(s.ListenAddr) == "" {
		return fmt.Errorf("server.listen_addr cannot be empty when the server is enabled")
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	switch d.Driver {
	case "sqlite":
		if strings.TrimSpace(d.Path) == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case "mysql":
		if strings.TrimSpace(d.DSN) == "" {
			return fmt.Errorf("database.dsn is required for the mysql driver")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite|mysql, got %q", d.Driver)
	}
	return nil
}

func (q *QuotesConfig) validate() error {
	switch q.Source {
	case "file":
		if strings.TrimSpace(q.Path) == "" {
			return fmt.Errorf("quotes.path is required for the file source")
		}
	case "binance":
		if strings.TrimSpace(q.Binance.RESTBaseURL) == "" {
			return fmt.Errorf("quotes.binance.rest_base_url cannot be empty")
		}
	case "static":
	default:
		return fmt.Errorf("quotes.source must be file|binance|static, got %q", q.Source)
	}
	if q.CacheTTLSeconds < 0 {
		return fmt.Errorf("quotes.cache_ttl_seconds must be >= 0")
	}
	return nil
}

func (m *MatcherConfig) validate() error {
	if !m.Enabled {
		return nil
	}
	if !IsValidInterval(m.ScanInterval) {
		return fmt.Errorf("matcher.scan_interval must look like 2s/30s/1m, got %q", m.ScanInterval)
	}
	if m.BatchSize < 0 {
		return fmt.Errorf("matcher.batch_size must be >= 0")
	}
	return nil
}

func (t *TradingConfig) validate() error {
	if strings.TrimSpace(t.Venue) == "" {
		return fmt.Errorf("trading.venue cannot be empty")
	}
	switch t.DefaultTimeInForce {
	case "day", "gtc":
		return nil
	}
	return fmt.Errorf("trading.default_time_in_force must be day|gtc, got %q", t.DefaultTimeInForce)
}

func (n *NotifyConfig) validate() error {
	if n.Telegram.Enabled {
		if n.Telegram.BotToken == "" || n.Telegram.ChatID == "" {
			return fmt.Errorf("telegram notification enabled but missing bot_token or chat_id")
		}
	}
	return nil
}

// IsValidInterval accepts digits followed by one of s/m/h/d/w.
func IsValidInterval(s string) bool {
	if len(s) < 2 {
		return false
	}
	suf := s[len(s)-1]
	if suf != 's' && suf != 'm' && suf != 'h' && suf != 'd' && suf != 'w' {
		return false
	}
	for i := 0; i < len(s)-1; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

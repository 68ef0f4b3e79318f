package symbol

import (
	"fmt"
	"strings"
)

// Normalize canonicalizes a user-supplied ticker: trimmed, upper-cased,
// restricted to the charset real venues use. Returns an error for
// anything that could not possibly identify an instrument.
func Normalize(raw string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", fmt.Errorf("symbol is empty")
	}
	if len(s) > 32 {
		return "", fmt.Errorf("symbol %q too long", raw)
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == '/':
		default:
			return "", fmt.Errorf("symbol %q contains invalid character %q", raw, r)
		}
	}
	return s, nil
}

// ToBinance maps a canonical symbol to Binance's pair form.
// Binance requires symbols without separators (e.g. BTC/USDT -> BTCUSDT).
func ToBinance(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}

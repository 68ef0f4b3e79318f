package broker

import (
	"testing"

	"paperbroker/internal/market"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func dp(v string) *decimal.Decimal {
	x := decimal.RequireFromString(v)
	return &x
}

func TestWeightedAverage(t *testing.T) {
	cases := []struct {
		name             string
		oldQty, oldAvg   string
		addQty, addPrice string
		want             string
	}{
		{"first fill is the average", "0", "0", "10", "120", "120"},
		{"equal lots average evenly", "10", "100", "10", "120", "110"},
		{"small add barely moves it", "3", "50", "1", "90", "60"},
		{"fractional shares", "2.5", "10", "2.5", "20", "15"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := weightedAverage(d(tc.oldQty), d(tc.oldAvg), d(tc.addQty), d(tc.addPrice))
			assert.True(t, got.Equal(d(tc.want)), "got %s, want %s", got, tc.want)
		})
	}
}

func TestTriggerPrice(t *testing.T) {
	quote := func(bid, ask string) *market.Quote {
		return &market.Quote{Symbol: "AAPL", Bid: d(bid), Ask: d(ask)}
	}
	cases := []struct {
		name      string
		order     Order
		quote     *market.Quote
		wantOK    bool
		wantPrice string
	}{
		{"limit buy below limit", Order{Side: SideBuy, Type: TypeLimit, LimitPrice: dp("90")}, quote("88", "89"), true, "89"},
		{"limit buy at limit", Order{Side: SideBuy, Type: TypeLimit, LimitPrice: dp("90")}, quote("89", "90"), true, "90"},
		{"limit buy above limit", Order{Side: SideBuy, Type: TypeLimit, LimitPrice: dp("90")}, quote("94", "95"), false, ""},
		{"limit sell above limit", Order{Side: SideSell, Type: TypeLimit, LimitPrice: dp("110")}, quote("112", "113"), true, "112"},
		{"limit sell below limit", Order{Side: SideSell, Type: TypeLimit, LimitPrice: dp("110")}, quote("109", "110"), false, ""},
		{"stop buy breakout", Order{Side: SideBuy, Type: TypeStop, StopPrice: dp("105")}, quote("105", "106"), true, "106"},
		{"stop buy untripped", Order{Side: SideBuy, Type: TypeStop, StopPrice: dp("105")}, quote("103", "104"), false, ""},
		{"stop sell stop loss", Order{Side: SideSell, Type: TypeStop, StopPrice: dp("95")}, quote("94", "95"), true, "94"},
		{"stop sell untripped", Order{Side: SideSell, Type: TypeStop, StopPrice: dp("95")}, quote("96", "97"), false, ""},
		{"stop limit buy in band", Order{Side: SideBuy, Type: TypeStopLimit, StopPrice: dp("105"), LimitPrice: dp("108")}, quote("105", "106"), true, "106"},
		{"stop limit buy beyond limit", Order{Side: SideBuy, Type: TypeStopLimit, StopPrice: dp("105"), LimitPrice: dp("108")}, quote("108", "109"), false, ""},
		{"stop limit buy below stop", Order{Side: SideBuy, Type: TypeStopLimit, StopPrice: dp("105"), LimitPrice: dp("108")}, quote("103", "104"), false, ""},
		{"stop limit sell in band", Order{Side: SideSell, Type: TypeStopLimit, StopPrice: dp("95"), LimitPrice: dp("92")}, quote("94", "95"), true, "94"},
		{"stop limit sell below limit", Order{Side: SideSell, Type: TypeStopLimit, StopPrice: dp("95"), LimitPrice: dp("92")}, quote("91", "92"), false, ""},
		{"stop limit sell above stop", Order{Side: SideSell, Type: TypeStopLimit, StopPrice: dp("95"), LimitPrice: dp("92")}, quote("96", "97"), false, ""},
		{"market never rests", Order{Side: SideBuy, Type: TypeMarket}, quote("99", "100"), false, ""},
		{"limit without price", Order{Side: SideBuy, Type: TypeLimit}, quote("88", "89"), false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			price, ok := triggerPrice(&tc.order, tc.quote)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.True(t, price.Equal(d(tc.wantPrice)), "got %s, want %s", price, tc.wantPrice)
			}
		})
	}
}

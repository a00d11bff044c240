package normalize

import (
	"strconv"
	"strings"
)

// FormatPercent renders a probability-like price in [0,1] as a percentage
// with one to two fractional digits: 0.7 -> "70.0%", 0.3333 -> "33.33%".
func FormatPercent(price float64) string {
	s := strconv.FormatFloat(price*100, 'f', 2, 64)
	if strings.HasSuffix(s, "0") {
		s = s[:len(s)-1]
	}
	return s + "%"
}

// LastTradeDisplay renders the last trade price for the UI. A missing or zero
// price means the market has not traded, not a 0.0% trade.
func LastTradeDisplay(price float64) string {
	if price <= 0 {
		return "No trades"
	}
	return FormatPercent(price)
}

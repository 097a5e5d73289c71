package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// currencyPrice matches the first currency-like substring: an optional
// symbol or code followed by a number with optional thousands separators.
var currencyPrice = regexp.MustCompile(`(?i)([$€£¥]|usd|eur|gbp|jpy)\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

// barePrice matches a decimal amount without a symbol, e.g. "12.50".
var barePrice = regexp.MustCompile(`[0-9][0-9,]*\.[0-9]{1,2}`)

var currencyBySymbol = map[string]string{
	"$": "USD", "usd": "USD",
	"€": "EUR", "eur": "EUR",
	"£": "GBP", "gbp": "GBP",
	"¥": "JPY", "jpy": "JPY",
}

// ParsePrice extracts the numeric value of the first currency-like
// substring in text. A name with an unparsable price is still a product,
// so failure yields (0, "USD", false) rather than an error.
func ParsePrice(text string) (float64, string, bool) {
	if m := currencyPrice.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64); err == nil && v >= 0 {
			cur := currencyBySymbol[strings.ToLower(m[1])]
			if cur == "" {
				cur = "USD"
			}
			return v, cur, true
		}
	}

	if m := barePrice.FindString(text); m != "" {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64); err == nil && v >= 0 {
			return v, "USD", true
		}
	}

	return 0, "USD", false
}

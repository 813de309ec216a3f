// Package numeric parses scraped financial metric strings into numbers.
// Scraped dashboards emit values like "$1.2M", "-45.3%" or "1,234.5"; the
// parsing rule is shared by the snapshot store and the feature builder so
// both sides of the pipeline normalize identically.
package numeric

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseMetric converts a scraped metric string into a decimal. The grammar:
// leading "$" and embedded "," and trailing "%" are stripped, a trailing
// K/M/B suffix multiplies by 1e3/1e6/1e9. Anything that still fails to parse
// coerces to zero — malformed strings are routine in scraped data and must
// never abort a batch.
func ParseMetric(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "%", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}

	multiplier := decimal.NewFromInt(1)
	switch s[len(s)-1] {
	case 'K', 'k':
		multiplier = decimal.NewFromInt(1_000)
		s = s[:len(s)-1]
	case 'M', 'm':
		multiplier = decimal.NewFromInt(1_000_000)
		s = s[:len(s)-1]
	case 'B', 'b':
		multiplier = decimal.NewFromInt(1_000_000_000)
		s = s[:len(s)-1]
	}

	value, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}

	return value.Mul(multiplier)
}

// ParseFloat is ParseMetric for call sites that work in float64 space.
func ParseFloat(raw string) float64 {
	return ParseMetric(raw).InexactFloat64()
}

package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MaxAmountCents caps every money field: 1,000,000,000.00.
	MaxAmountCents int64 = 100_000_000_000
	// MaxLineQty caps the quantity of a single order or sale line.
	MaxLineQty = 100_000
)

var maxAmount = decimal.New(MaxAmountCents, -2)

// FormatCents renders an amount in cents with two decimals, e.g. 1250 -> "12.50".
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// CentsToFloat is used where a spreadsheet cell needs a numeric value.
func CentsToFloat(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}

// ParseAmount converts a decimal amount such as "12.5" or "12,50" to cents,
// rounding half away from zero. Negative amounts and amounts above
// MaxAmountCents are rejected.
func ParseAmount(raw string) (int64, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if trimmed == "" {
		return 0, fmt.Errorf("empty amount")
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	value = value.Round(2)
	if value.IsNegative() || value.GreaterThan(maxAmount) {
		return 0, fmt.Errorf("amount %q is out of range", raw)
	}
	return value.Shift(2).IntPart(), nil
}

package calculator

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrZeroBase is returned when the reference price of a change is zero.
var ErrZeroBase = errors.New("reference price is zero")

var hundred = decimal.NewFromInt(100)

// PercentChange returns (prev - cur) / prev * 100.
// A positive result means the price fell from prev to cur.
func PercentChange(prev, cur decimal.Decimal) (decimal.Decimal, error) {
	if prev.IsZero() {
		return decimal.Zero, ErrZeroBase
	}
	return prev.Sub(cur).Div(prev).Mul(hundred), nil
}

// Exceeds reports whether magnitude is strictly greater than the percent threshold.
func Exceeds(magnitude decimal.Decimal, threshold float64) bool {
	return magnitude.GreaterThan(decimal.NewFromFloat(threshold))
}

// Package money converts between the integer minor units used on the wire and
// in every cart/checkout computation, and the major-unit decimals shown on
// display and edit surfaces.
package money

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToMajor converts minor units to an exact major-unit decimal (1250 -> 12.50).
func ToMajor(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(hundred)
}

// ToMinor converts a major-unit decimal to minor units, rounding half away
// from zero to the nearest minor unit.
func ToMinor(major decimal.Decimal) int64 {
	return major.Mul(hundred).Round(0).IntPart()
}

// ParseMajor parses a major-unit string typed on an edit surface.
func ParseMajor(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// Format renders minor units as a fixed two-decimal major amount.
func Format(minor int64) string {
	return ToMajor(minor).StringFixed(2)
}

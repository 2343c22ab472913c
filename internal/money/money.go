// Package money implements fixed-point monetary arithmetic in integer
// minor units (cents for two-digit currencies). Keeping money integral
// makes the pipeline's conservation invariants exact instead of
// tolerance-based.
package money

import (
	"fmt"
	"strings"
)

// Amount is a monetary value in minor currency units.
type Amount int64

// DefaultMinorDigits is the minor-unit precision for the common case
// (USD, EUR, and most Shopify currencies).
const DefaultMinorDigits = 2

var pow10 = [...]int64{1, 10, 100, 1000, 10000, 100000, 1000000}

// Unit returns the scale factor for the given minor-digit precision.
func Unit(minorDigits int) int64 {
	if minorDigits < 0 || minorDigits >= len(pow10) {
		return pow10[DefaultMinorDigits]
	}
	return pow10[minorDigits]
}

// Parse converts a decimal money string ("19.99", "-3.5", "7") into an
// Amount at the given precision. Fractional digits beyond the precision
// are rounded half away from zero. The empty string is an error; callers
// that want Shopify's lenient "missing means zero" behavior handle that
// at the ingestion boundary.
func Parse(s string, minorDigits int) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("money: empty amount")
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" || s == "." {
		return 0, fmt.Errorf("money: malformed amount %q", s)
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}

	var units int64
	for _, c := range intPart {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("money: malformed amount %q", s)
		}
		units = units*10 + int64(c-'0')
	}

	scale := Unit(minorDigits)
	v := units * scale

	var frac int64
	for i, c := range fracPart {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("money: malformed amount %q", s)
		}
		if i < minorDigits {
			frac = frac*10 + int64(c-'0')
		} else if i == minorDigits {
			// Round the first dropped digit half away from zero.
			if c >= '5' {
				frac++
			}
		}
	}
	for i := len(fracPart); i < minorDigits; i++ {
		frac *= 10
	}
	v += frac

	if neg {
		v = -v
	}
	return Amount(v), nil
}

// Format renders an Amount back to a decimal string at the given
// precision, e.g. Amount(1999) → "19.99".
func Format(a Amount, minorDigits int) string {
	scale := Unit(minorDigits)
	v := int64(a)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	if minorDigits <= 0 {
		return fmt.Sprintf("%s%d", sign, v)
	}
	return fmt.Sprintf("%s%d.%0*d", sign, v/scale, minorDigits, v%scale)
}

// MulInt multiplies an Amount by an integer quantity.
func (a Amount) MulInt(n int64) Amount { return Amount(int64(a) * n) }

// DivInt divides an Amount by an integer count, rounding half away from
// zero like every other division in this package.
func (a Amount) DivInt(n int64) Amount { return roundDiv(int64(a), n) }

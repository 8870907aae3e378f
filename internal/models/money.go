package models

import (
	"github.com/shopspring/decimal"

	"github.com/dot-css/Palm-Pay-App/internal/errors"
)

// Balances are held as int64 minor units (paisa). Decimal strings only exist
// at the API boundary; no floating point touches balance arithmetic.
const minorUnitExponent = 2

// ParseAmount converts a decimal string like "150" or "150.25" into minor
// units. Non-numeric input, sub-minor-unit precision, and non-positive values
// are all rejected.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.ErrInvalidAmount
	}
	if d.Exponent() < -minorUnitExponent {
		return 0, errors.NewValidationError("amount", "amounts cannot be smaller than one paisa")
	}
	minor := d.Shift(minorUnitExponent)
	if !minor.IsInteger() {
		return 0, errors.NewValidationError("amount", "amounts cannot be smaller than one paisa")
	}
	if !minor.IsPositive() {
		return 0, errors.ErrInvalidAmount
	}
	v := minor.IntPart()
	if !minor.Equal(decimal.NewFromInt(v)) {
		return 0, errors.ErrInvalidAmount
	}
	return v, nil
}

// FormatAmount renders minor units as a fixed two-decimal string.
func FormatAmount(minor int64) string {
	return decimal.New(minor, -minorUnitExponent).StringFixed(minorUnitExponent)
}

// Package validation is the deterministic arithmetic engine. It is the one
// place numeric correctness is guaranteed: all math runs on exact decimals,
// identical inputs always produce identical results, and bad input surfaces
// as a typed error instead of a crash or a substituted default.
package validation

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/axiomfin/be-invoice-review/internal/errors"
)

// minorUnitScale is the number of fractional digits amounts are normalized
// to before comparison. All supported currencies use 2-digit minor units.
const minorUnitScale = 2

// Result is the outcome of one arithmetic check.
type Result struct {
	// Pass is true when the variance is within tolerance.
	Pass bool
	// Variance is |subtotal + tax - total| after normalization.
	Variance decimal.Decimal
}

// NormalizeAmount parses a monetary field into an exact decimal rounded
// half-up to the currency minor unit. Fields arriving with more fractional
// digits than the minor unit are rounded here, never later, so the pass/fail
// boundary is fixed at the conversion edge. Absent, non-numeric and negative
// values fail with an INVALID_INPUT error.
func NormalizeAmount(field, value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero, errors.InvalidInput(field, "amount is required")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, errors.InvalidInput(field, "amount is not a valid decimal")
	}
	if d.IsNegative() {
		return decimal.Zero, errors.InvalidInput(field, "amount cannot be negative")
	}
	// Round is half away from zero, matching standard financial rounding.
	return d.Round(minorUnitScale), nil
}

// Validate checks that subtotal + tax equals total within tolerance.
// It is pure: no state, no locale-dependent parsing, no hidden rounding
// beyond the documented minor-unit normalization.
func Validate(subtotal, tax, total string, tolerance decimal.Decimal) (Result, error) {
	sub, err := NormalizeAmount("subtotal", subtotal)
	if err != nil {
		return Result{}, err
	}
	tx, err := NormalizeAmount("tax", tax)
	if err != nil {
		return Result{}, err
	}
	tot, err := NormalizeAmount("total", total)
	if err != nil {
		return Result{}, err
	}

	variance := sub.Add(tx).Sub(tot).Abs()
	return Result{
		Pass:     variance.LessThanOrEqual(tolerance),
		Variance: variance,
	}, nil
}

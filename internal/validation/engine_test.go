package validation

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/axiomfin/be-invoice-review/internal/errors"
)

func tolerance(t *testing.T) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString("0.05")
}

func TestValidate_ExactDecimalMath(t *testing.T) {
	cases := []struct {
		name                 string
		subtotal, tax, total string
		pass                 bool
		variance             string
	}{
		{"exact", "100.00", "21.00", "121.00", true, "0"},
		{"over tolerance", "100.00", "21.00", "121.06", false, "0.06"},
		{"at tolerance boundary", "100.00", "21.00", "121.05", true, "0.05"},
		{"under tolerance", "100.00", "21.00", "121.03", true, "0.03"},
		{"zero everything", "0.00", "0.00", "0.00", true, "0"},
		{"integer inputs", "100", "21", "121", true, "0"},
		{"excess precision rounds half up", "100.004", "21.001", "121.01", true, "0.01"},
		{"large amounts stay exact", "1000000000.10", "210000000.02", "1210000000.12", true, "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Validate(tc.subtotal, tc.tax, tc.total, tolerance(t))
			if err != nil {
				t.Fatalf("Validate(%s, %s, %s) error: %v", tc.subtotal, tc.tax, tc.total, err)
			}
			if res.Pass != tc.pass {
				t.Fatalf("Validate(%s, %s, %s) pass = %v, expected %v (variance %s)",
					tc.subtotal, tc.tax, tc.total, res.Pass, tc.pass, res.Variance)
			}
			if !res.Variance.Equal(decimal.RequireFromString(tc.variance)) {
				t.Fatalf("variance = %s, expected %s", res.Variance, tc.variance)
			}
		})
	}
}

func TestValidate_MalformedInputs(t *testing.T) {
	cases := []struct {
		name                 string
		subtotal, tax, total string
	}{
		{"missing subtotal", "", "21.00", "121.00"},
		{"missing tax", "100.00", "   ", "121.00"},
		{"non-numeric total", "100.00", "21.00", "12x.00"},
		{"negative subtotal", "-100.00", "21.00", "-79.00"},
		{"negative tax", "100.00", "-21.00", "79.00"},
		{"garbage", "hundred", "twenty one", "lots"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Validate(tc.subtotal, tc.tax, tc.total, tolerance(t))
			if err == nil {
				t.Fatalf("Validate(%q, %q, %q) accepted malformed input", tc.subtotal, tc.tax, tc.total)
			}
			if errors.CodeOf(err) != errors.ErrCodeInvalidInput {
				t.Fatalf("error code = %s, expected INVALID_INPUT", errors.CodeOf(err))
			}
		})
	}
}

func TestValidate_Idempotent(t *testing.T) {
	first, err := Validate("100.00", "21.00", "121.06", tolerance(t))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := Validate("100.00", "21.00", "121.06", tolerance(t))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.Pass != second.Pass || !first.Variance.Equal(second.Variance) {
		t.Fatalf("identical inputs diverged: %+v vs %+v", first, second)
	}
}

func TestNormalizeAmount_FixesScale(t *testing.T) {
	cases := []struct {
		in, expected string
	}{
		{"100", "100"},
		{"100.005", "100.01"},
		{"100.004", "100"},
		{"  121.00 ", "121"},
	}
	for _, tc := range cases {
		d, err := NormalizeAmount("amount", tc.in)
		if err != nil {
			t.Fatalf("NormalizeAmount(%q) error: %v", tc.in, err)
		}
		if !d.Equal(decimal.RequireFromString(tc.expected)) {
			t.Fatalf("NormalizeAmount(%q) = %s, expected %s", tc.in, d, tc.expected)
		}
	}
}

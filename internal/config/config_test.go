package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with empty environment: %v", err)
	}

	if cfg.Server.Port != 8085 {
		t.Fatalf("default port = %d, expected 8085", cfg.Server.Port)
	}
	if !cfg.Workflow.ToleranceAmount.Equal(mustDecimal(t, "0.05")) {
		t.Fatalf("default tolerance = %s, expected 0.05", cfg.Workflow.ToleranceAmount)
	}
	if cfg.Workflow.UnknownVendorPolicy != UnknownVendorRequireReview {
		t.Fatalf("default unknown-vendor policy = %q, expected REQUIRE_REVIEW", cfg.Workflow.UnknownVendorPolicy)
	}
	if cfg.Workflow.RiskUnavailablePolicy != RiskUnavailableSuspend {
		t.Fatalf("default risk-unavailable policy = %q, expected SUSPEND", cfg.Workflow.RiskUnavailablePolicy)
	}
	if cfg.Workflow.RiskLookupTimeout != 2*time.Second {
		t.Fatalf("default risk lookup timeout = %s, expected 2s", cfg.Workflow.RiskLookupTimeout)
	}
	if cfg.Workflow.ReviewTimeout != 0 {
		t.Fatalf("review expiry must be disabled by default, got %s", cfg.Workflow.ReviewTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TOLERANCE_AMOUNT", "0.10")
	t.Setenv("UNKNOWN_VENDOR_POLICY", "auto_approve")
	t.Setenv("RISK_UNAVAILABLE_POLICY", "treat_as_unknown")
	t.Setenv("RISK_LOOKUP_TIMEOUT_MS", "500")
	t.Setenv("REVIEW_TIMEOUT_MS", "60000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !cfg.Workflow.ToleranceAmount.Equal(mustDecimal(t, "0.10")) {
		t.Fatalf("tolerance = %s, expected 0.10", cfg.Workflow.ToleranceAmount)
	}
	if cfg.Workflow.UnknownVendorPolicy != UnknownVendorAutoApprove {
		t.Fatalf("unknown-vendor policy = %q, expected AUTO_APPROVE", cfg.Workflow.UnknownVendorPolicy)
	}
	if cfg.Workflow.RiskUnavailablePolicy != RiskUnavailableTreatAsUnknown {
		t.Fatalf("risk-unavailable policy = %q, expected TREAT_AS_UNKNOWN", cfg.Workflow.RiskUnavailablePolicy)
	}
	if cfg.Workflow.RiskLookupTimeout != 500*time.Millisecond {
		t.Fatalf("risk lookup timeout = %s, expected 500ms", cfg.Workflow.RiskLookupTimeout)
	}
	if cfg.Workflow.ReviewTimeout != time.Minute {
		t.Fatalf("review timeout = %s, expected 1m", cfg.Workflow.ReviewTimeout)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	cases := []struct {
		key, value string
	}{
		{"TOLERANCE_AMOUNT", "five cents"},
		{"TOLERANCE_AMOUNT", "-0.05"},
		{"UNKNOWN_VENDOR_POLICY", "MAYBE"},
		{"RISK_UNAVAILABLE_POLICY", "PANIC"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load accepted %s=%q", tc.key, tc.value)
			}
		})
	}
}

// Package config loads service configuration from the environment. It is read
// once at startup; the resulting value is immutable for the lifetime of the
// process, and every tenant runs with its own copy.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Unknown-vendor policy values accepted by UNKNOWN_VENDOR_POLICY.
const (
	UnknownVendorRequireReview = "REQUIRE_REVIEW"
	UnknownVendorAutoApprove   = "AUTO_APPROVE"
)

// Risk-unavailable policy values accepted by RISK_UNAVAILABLE_POLICY.
const (
	RiskUnavailableSuspend        = "SUSPEND"
	RiskUnavailableTreatAsUnknown = "TREAT_AS_UNKNOWN"
)

// Config is the full service configuration.
type Config struct {
	Service  ServiceConfig
	Server   ServerConfig
	Database DatabaseConfig
	Nats     NatsConfig
	Risk     RiskConfig
	Workflow WorkflowConfig
}

// ServiceConfig identifies the running service instance.
type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
	LogLevel    string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds the optional Postgres connection string. Empty means
// no database: the audit sink is skipped and the risk store falls back to the
// remote or static backend.
type DatabaseConfig struct {
	URL string
}

// NatsConfig holds the optional NATS connection settings. Empty URL disables
// both the decision subscriber and the event publisher.
type NatsConfig struct {
	URL             string
	DecisionSubject string
}

// RiskConfig selects the risk store backend when no database is configured.
type RiskConfig struct {
	ServiceURL string
}

// WorkflowConfig is the per-tenant orchestrator configuration.
type WorkflowConfig struct {
	ToleranceAmount       decimal.Decimal
	UnknownVendorPolicy   string
	RiskUnavailablePolicy string
	RiskLookupTimeout     time.Duration
	ReviewTimeout         time.Duration // 0 disables review expiry
}

// Load reads configuration from the environment, applying defaults and
// validating enumerated values.
func Load() (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        getEnv("SERVICE_NAME", "be-invoice-review"),
			Version:     getEnv("SERVICE_VERSION", "dev"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:            getEnvInt("PORT", 8085),
			ReadTimeout:     getEnvDurationMs("READ_TIMEOUT_MS", 10*time.Second),
			WriteTimeout:    getEnvDurationMs("WRITE_TIMEOUT_MS", 30*time.Second),
			IdleTimeout:     getEnvDurationMs("IDLE_TIMEOUT_MS", 60*time.Second),
			ShutdownTimeout: getEnvDurationMs("SHUTDOWN_TIMEOUT_MS", 15*time.Second),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Nats: NatsConfig{
			URL:             getEnv("NATS_URL", ""),
			DecisionSubject: getEnv("NATS_DECISION_SUBJECT", "reviews.ap.decision"),
		},
		Risk: RiskConfig{
			ServiceURL: getEnv("RISK_SERVICE_URL", ""),
		},
		Workflow: WorkflowConfig{
			UnknownVendorPolicy:   strings.ToUpper(getEnv("UNKNOWN_VENDOR_POLICY", UnknownVendorRequireReview)),
			RiskUnavailablePolicy: strings.ToUpper(getEnv("RISK_UNAVAILABLE_POLICY", RiskUnavailableSuspend)),
			RiskLookupTimeout:     getEnvDurationMs("RISK_LOOKUP_TIMEOUT_MS", 2*time.Second),
			ReviewTimeout:         getEnvDurationMs("REVIEW_TIMEOUT_MS", 0),
		},
	}

	tolerance, err := decimal.NewFromString(getEnv("TOLERANCE_AMOUNT", "0.05"))
	if err != nil {
		return nil, fmt.Errorf("TOLERANCE_AMOUNT is not a valid decimal: %w", err)
	}
	if tolerance.IsNegative() {
		return nil, fmt.Errorf("TOLERANCE_AMOUNT cannot be negative")
	}
	cfg.Workflow.ToleranceAmount = tolerance

	switch cfg.Workflow.UnknownVendorPolicy {
	case UnknownVendorRequireReview, UnknownVendorAutoApprove:
	default:
		return nil, fmt.Errorf("UNKNOWN_VENDOR_POLICY must be %s or %s, got %q",
			UnknownVendorRequireReview, UnknownVendorAutoApprove, cfg.Workflow.UnknownVendorPolicy)
	}

	switch cfg.Workflow.RiskUnavailablePolicy {
	case RiskUnavailableSuspend, RiskUnavailableTreatAsUnknown:
	default:
		return nil, fmt.Errorf("RISK_UNAVAILABLE_POLICY must be %s or %s, got %q",
			RiskUnavailableSuspend, RiskUnavailableTreatAsUnknown, cfg.Workflow.RiskUnavailablePolicy)
	}

	if cfg.Workflow.RiskLookupTimeout <= 0 {
		return nil, fmt.Errorf("RISK_LOOKUP_TIMEOUT_MS must be positive")
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as int or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

// getEnvDurationMs reads a millisecond count, returning a default on absence
// or parse failure.
func getEnvDurationMs(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

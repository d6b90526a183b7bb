// Package risk defines the vendor risk store contract consumed by the
// workflow orchestrator, plus the bundled backends. The orchestrator only
// depends on the Store interface; how risk is computed or stored is the
// backend's business.
package risk

import "context"

// Level classifies a vendor.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// Profile is a precomputed risk classification for one vendor.
type Profile struct {
	VendorID string `json:"vendor_id"`
	Level    Level  `json:"risk_level"`
	Note     string `json:"note,omitempty"`
}

// Store looks up the risk profile for a vendor id.
//
// A (nil, nil) return is a clean miss: no profile exists for that vendor.
// Implementations must be read-only, safe for concurrent use, and must honor
// context cancellation — the orchestrator always calls Lookup under a
// deadline.
type Store interface {
	Lookup(ctx context.Context, vendorID string) (*Profile, error)
}

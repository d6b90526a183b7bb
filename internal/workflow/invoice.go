package workflow

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the immutable part of a tracked submission. Monetary fields are
// kept as the decimal strings received at the boundary — the validation
// engine owns their interpretation, and a malformed amount must still yield
// a tracked, suspended invoice.
type Invoice struct {
	ID       string
	VendorID string
	Subtotal string
	Tax      string
	Total    string
	Currency string
	Metadata map[string]string
}

// Transition is one recorded state change: enough for audit replay without
// re-running validation.
type Transition struct {
	State    State
	Reason   Reason
	Variance *decimal.Decimal
	Note     string
	At       time.Time
}

// Outcome is the result surface returned by Submit, Resume and Status.
type Outcome struct {
	InvoiceID string
	State     State
	Reason    Reason
	Variance  *decimal.Decimal
	Note      string
	Timestamp time.Time
}

// record is the per-invoice tracking entry. Its mutex serializes all
// transitions for one invoice id; unrelated ids never contend on it.
type record struct {
	mu sync.Mutex

	invoice     Invoice
	state       State
	reason      Reason
	variance    *decimal.Decimal
	note        string
	updatedAt   time.Time
	transitions []Transition
	expiry      *time.Timer
}

// outcomeLocked snapshots the record. Caller holds rec.mu.
func (rec *record) outcomeLocked() *Outcome {
	var variance *decimal.Decimal
	if rec.variance != nil {
		v := *rec.variance
		variance = &v
	}
	return &Outcome{
		InvoiceID: rec.invoice.ID,
		State:     rec.state,
		Reason:    rec.reason,
		Variance:  variance,
		Note:      rec.note,
		Timestamp: rec.updatedAt,
	}
}

// historyLocked copies the transition log. Caller holds rec.mu.
func (rec *record) historyLocked() []Transition {
	out := make([]Transition, len(rec.transitions))
	copy(out, rec.transitions)
	return out
}

package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/axiomfin/be-invoice-review/internal/errors"
	"github.com/axiomfin/be-invoice-review/internal/logger"
	"github.com/axiomfin/be-invoice-review/internal/risk"
	"github.com/axiomfin/be-invoice-review/internal/validation"
)

// UnknownVendorPolicy decides what happens when the risk store has no
// profile for a vendor.
type UnknownVendorPolicy string

const (
	UnknownVendorRequireReview UnknownVendorPolicy = "REQUIRE_REVIEW"
	UnknownVendorAutoApprove   UnknownVendorPolicy = "AUTO_APPROVE"
)

// RiskUnavailablePolicy decides what happens when the risk lookup errors or
// times out.
type RiskUnavailablePolicy string

const (
	// RiskUnavailableSuspend requires certainty before auto-approval: any
	// lookup failure suspends with RISK_LOOKUP_UNAVAILABLE.
	RiskUnavailableSuspend RiskUnavailablePolicy = "SUSPEND"
	// RiskUnavailableTreatAsUnknown folds a lookup failure into the
	// unknown-vendor policy.
	RiskUnavailableTreatAsUnknown RiskUnavailablePolicy = "TREAT_AS_UNKNOWN"
)

// Config is the per-tenant orchestrator configuration. It is copied at
// construction and never shared mutable state between tenants.
type Config struct {
	// Tolerance is the maximum variance allowed before automatic approval
	// is disallowed. Zero means exact match required; the deployment
	// default of 0.05 comes from the config layer.
	Tolerance             decimal.Decimal
	UnknownVendorPolicy   UnknownVendorPolicy
	RiskUnavailablePolicy RiskUnavailablePolicy
	RiskLookupTimeout     time.Duration
	// ReviewTimeout > 0 opts in to automatic expiry of AWAITING_HUMAN
	// invoices (REJECTED / REVIEW_TIMEOUT). Zero disables it.
	ReviewTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.UnknownVendorPolicy == "" {
		c.UnknownVendorPolicy = UnknownVendorRequireReview
	}
	if c.RiskUnavailablePolicy == "" {
		c.RiskUnavailablePolicy = RiskUnavailableSuspend
	}
	if c.RiskLookupTimeout <= 0 {
		c.RiskLookupTimeout = 2 * time.Second
	}
	return c
}

// AuditSink receives every recorded transition. Append failures are logged
// and never interrupt workflow operations.
type AuditSink interface {
	Append(ctx context.Context, invoiceID string, tr Transition) error
}

// EventPublisher emits workflow events to the outside world (notifications,
// review dashboards). Publishing is fire-and-forget.
type EventPublisher interface {
	PublishWorkflowEvent(ctx context.Context, eventType, invoiceID string, payload map[string]interface{})
}

// SubmitRequest is the extraction output handed to Submit. Monetary fields
// are decimal strings — never binary floating point.
type SubmitRequest struct {
	InvoiceID string
	VendorID  string
	Subtotal  string
	Tax       string
	Total     string
	Currency  string
	Metadata  map[string]string
}

// Orchestrator owns the state machine for every tracked invoice and
// sequences the validation and risk steps deterministically.
type Orchestrator struct {
	cfg    Config
	risk   risk.Store
	audit  AuditSink
	events EventPublisher
	log    *logger.Logger

	mu      sync.Mutex
	records map[string]*record
}

// NewOrchestrator creates an orchestrator for one tenant. audit and events
// may be nil.
func NewOrchestrator(cfg Config, riskStore risk.Store, audit AuditSink, events EventPublisher, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg.withDefaults(),
		risk:    riskStore,
		audit:   audit,
		events:  events,
		log:     log,
		records: make(map[string]*record),
	}
}

// Submit admits a new invoice and synchronously drives it to APPROVED,
// AWAITING_HUMAN or REJECTED. A duplicate id fails with CONFLICT and leaves
// the tracked invoice untouched.
func (o *Orchestrator) Submit(ctx context.Context, req *SubmitRequest) (*Outcome, error) {
	if req == nil || strings.TrimSpace(req.InvoiceID) == "" {
		return nil, errors.InvalidInput("invoice_id", "invoice id is required")
	}
	if strings.TrimSpace(req.VendorID) == "" {
		return nil, errors.InvalidInput("vendor_id", "vendor id is required")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "EUR"
	}
	if len(currency) != 3 {
		return nil, errors.InvalidInput("currency", "currency must be 3-letter ISO code")
	}

	rec := &record{
		invoice: Invoice{
			ID:       req.InvoiceID,
			VendorID: req.VendorID,
			Subtotal: req.Subtotal,
			Tax:      req.Tax,
			Total:    req.Total,
			Currency: currency,
			Metadata: copyMetadata(req.Metadata),
		},
		state: StatePending,
	}

	// Admit exactly one record per id: the registry insert is the atomic
	// claim, and the record lock is taken before the registry lock drops so
	// no other caller can observe a half-processed invoice.
	o.mu.Lock()
	if _, exists := o.records[req.InvoiceID]; exists {
		o.mu.Unlock()
		return nil, errors.New(errors.ErrCodeConflict,
			fmt.Sprintf("invoice %q is already tracked", req.InvoiceID))
	}
	o.records[req.InvoiceID] = rec
	rec.mu.Lock()
	o.mu.Unlock()
	defer rec.mu.Unlock()

	o.transitionLocked(ctx, rec, StateProcessing, "", nil, "")

	// Step 1: deterministic math check. Any failure inside the engine is
	// caught here and converted into a suspension, never an unhandled fault.
	res, err := validation.Validate(req.Subtotal, req.Tax, req.Total, o.cfg.Tolerance)
	if err != nil {
		o.log.Warn().Err(err).
			Str("invoice_id", rec.invoice.ID).
			Msg("Math engine rejected invoice fields; suspending for review")
		return o.suspendLocked(ctx, rec, ReasonMathEngineError, nil), nil
	}
	if !res.Pass {
		variance := res.Variance
		return o.suspendLocked(ctx, rec, ReasonTaxVarianceExceeded, &variance), nil
	}

	// Step 2: vendor risk, under a deadline.
	profile, err := o.lookupRisk(ctx, req.VendorID)
	if err != nil {
		o.log.Warn().Err(err).
			Str("invoice_id", rec.invoice.ID).
			Str("vendor_id", req.VendorID).
			Str("policy", string(o.cfg.RiskUnavailablePolicy)).
			Msg("Risk lookup unavailable")
		if o.cfg.RiskUnavailablePolicy == RiskUnavailableTreatAsUnknown {
			return o.resolveUnknownVendorLocked(ctx, rec), nil
		}
		return o.suspendLocked(ctx, rec, ReasonRiskLookupUnavailable, nil), nil
	}
	if profile == nil {
		return o.resolveUnknownVendorLocked(ctx, rec), nil
	}
	if profile.Level == risk.LevelHigh {
		return o.suspendLocked(ctx, rec, ReasonHighRiskVendor, nil), nil
	}

	return o.finalizeLocked(ctx, rec, StateApproved, ReasonAutoApproved, ""), nil
}

// Resume applies a human decision to an invoice in AWAITING_HUMAN.
func (o *Orchestrator) Resume(ctx context.Context, invoiceID string, decision *HumanDecision) (*Outcome, error) {
	if decision == nil {
		return nil, errors.InvalidInput("decision", "decision is required")
	}

	var to State
	var reason Reason
	switch decision.Decision {
	case DecisionApprove:
		to, reason = StateApproved, ReasonHumanApproved
	case DecisionReject:
		to, reason = StateRejected, ReasonHumanRejected
	default:
		return nil, errors.InvalidInput("decision", "decision must be APPROVE or REJECT")
	}

	rec, ok := o.lookupRecord(invoiceID)
	if !ok {
		return nil, errors.NotFound("invoice", invoiceID)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.state != StateAwaitingHuman {
		return nil, errors.New(errors.ErrCodeConflict,
			fmt.Sprintf("invoice %q is in state %s, not AWAITING_HUMAN", invoiceID, rec.state))
	}

	if rec.expiry != nil {
		rec.expiry.Stop()
		rec.expiry = nil
	}

	return o.finalizeLocked(ctx, rec, to, reason, decision.Note), nil
}

// Status returns the current state and last reason for an invoice.
func (o *Orchestrator) Status(ctx context.Context, invoiceID string) (*Outcome, error) {
	rec, ok := o.lookupRecord(invoiceID)
	if !ok {
		return nil, errors.NotFound("invoice", invoiceID)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.outcomeLocked(), nil
}

// History returns the recorded transition log for an invoice, oldest first.
func (o *Orchestrator) History(ctx context.Context, invoiceID string) ([]Transition, error) {
	rec, ok := o.lookupRecord(invoiceID)
	if !ok {
		return nil, errors.NotFound("invoice", invoiceID)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.historyLocked(), nil
}

func (o *Orchestrator) lookupRecord(invoiceID string) (*record, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	rec, ok := o.records[invoiceID]
	return rec, ok
}

// lookupRisk bounds the collaborator call so a slow or unavailable store can
// never hang the invoking goroutine.
func (o *Orchestrator) lookupRisk(ctx context.Context, vendorID string) (*risk.Profile, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, o.cfg.RiskLookupTimeout)
	defer cancel()
	return o.risk.Lookup(lookupCtx, vendorID)
}

func (o *Orchestrator) resolveUnknownVendorLocked(ctx context.Context, rec *record) *Outcome {
	if o.cfg.UnknownVendorPolicy == UnknownVendorAutoApprove {
		return o.finalizeLocked(ctx, rec, StateApproved, ReasonAutoApproved, "")
	}
	return o.suspendLocked(ctx, rec, ReasonUnknownVendor, nil)
}

// suspendLocked moves the invoice to AWAITING_HUMAN and arms the optional
// review expiry. Caller holds rec.mu.
func (o *Orchestrator) suspendLocked(ctx context.Context, rec *record, reason Reason, variance *decimal.Decimal) *Outcome {
	o.transitionLocked(ctx, rec, StateAwaitingHuman, reason, variance, "")

	if o.cfg.ReviewTimeout > 0 {
		invoiceID := rec.invoice.ID
		rec.expiry = time.AfterFunc(o.cfg.ReviewTimeout, func() {
			o.expireReview(invoiceID)
		})
	}

	o.publish(ctx, "invoice_suspended", rec)
	return rec.outcomeLocked()
}

// finalizeLocked moves the invoice to a terminal state. Caller holds rec.mu.
func (o *Orchestrator) finalizeLocked(ctx context.Context, rec *record, to State, reason Reason, note string) *Outcome {
	o.transitionLocked(ctx, rec, to, reason, nil, note)

	event := "invoice_rejected"
	if to == StateApproved {
		event = "invoice_approved"
	}
	o.publish(ctx, event, rec)
	return rec.outcomeLocked()
}

// expireReview fires from the review timer: an invoice still awaiting a
// human past the deadline is rejected with REVIEW_TIMEOUT.
func (o *Orchestrator) expireReview(invoiceID string) {
	rec, ok := o.lookupRecord(invoiceID)
	if !ok {
		return
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.state != StateAwaitingHuman {
		return
	}
	rec.expiry = nil

	ctx := context.Background()
	o.transitionLocked(ctx, rec, StateRejected, ReasonReviewTimeout, nil, "")
	o.publish(ctx, "invoice_rejected", rec)
}

// transitionLocked records a state change, keeping the in-memory log and the
// audit sink in step. Internal callers only request transitions the table
// allows; an unlisted transition is a programming error and is logged, never
// applied. Caller holds rec.mu.
func (o *Orchestrator) transitionLocked(ctx context.Context, rec *record, to State, reason Reason, variance *decimal.Decimal, note string) {
	if !canTransition(rec.state, to) {
		o.log.Error().
			Str("invoice_id", rec.invoice.ID).
			Str("from", string(rec.state)).
			Str("to", string(to)).
			Msg("Refusing transition outside lifecycle table")
		return
	}

	now := time.Now().UTC()
	rec.state = to
	if reason != "" {
		rec.reason = reason
	}
	if variance != nil {
		rec.variance = variance
	}
	if note != "" {
		rec.note = note
	}
	rec.updatedAt = now

	tr := Transition{State: to, Reason: reason, Variance: variance, Note: note, At: now}
	rec.transitions = append(rec.transitions, tr)

	evt := o.log.Info().
		Str("invoice_id", rec.invoice.ID).
		Str("vendor_id", rec.invoice.VendorID).
		Str("state", string(to))
	if reason != "" {
		evt = evt.Str("reason", string(reason))
	}
	if variance != nil {
		evt = evt.Str("variance", variance.String())
	}
	evt.Msg("Workflow transition recorded")

	if o.audit != nil {
		if err := o.audit.Append(ctx, rec.invoice.ID, tr); err != nil {
			o.log.Warn().Err(err).
				Str("invoice_id", rec.invoice.ID).
				Str("state", string(to)).
				Msg("Failed to write audit log entry")
		}
	}
}

// publish emits a workflow event. Caller holds rec.mu.
func (o *Orchestrator) publish(ctx context.Context, eventType string, rec *record) {
	if o.events == nil {
		return
	}
	payload := map[string]interface{}{
		"state":     string(rec.state),
		"reason":    string(rec.reason),
		"vendor_id": rec.invoice.VendorID,
		"currency":  rec.invoice.Currency,
	}
	if rec.variance != nil {
		payload["variance"] = rec.variance.String()
	}
	o.events.PublishWorkflowEvent(ctx, eventType, rec.invoice.ID, payload)
}

func copyMetadata(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Package workflow is the invoice lifecycle orchestrator: a finite state
// machine that drives each submitted invoice from intake to a terminal
// decision, pausing for a human whenever arithmetic or vendor risk is in
// doubt. Collaborator failures never escape as crashes — they become named
// suspensions; only API misuse (unknown id, bad transition) surfaces as an
// operation error.
package workflow

// State is a lifecycle stage of an invoice under review.
type State string

const (
	StatePending       State = "PENDING"
	StateProcessing    State = "PROCESSING"
	StateAwaitingHuman State = "AWAITING_HUMAN"
	StateApproved      State = "APPROVED"
	StateRejected      State = "REJECTED"
)

// Terminal reports whether no further transitions are accepted from s.
func (s State) Terminal() bool {
	return s == StateApproved || s == StateRejected
}

// Reason is a machine-readable code attached to every transition.
type Reason string

const (
	ReasonMathEngineError       Reason = "MATH_ENGINE_ERROR"
	ReasonTaxVarianceExceeded   Reason = "TAX_VARIANCE_EXCEEDED"
	ReasonHighRiskVendor        Reason = "HIGH_RISK_VENDOR"
	ReasonUnknownVendor         Reason = "UNKNOWN_VENDOR"
	ReasonRiskLookupUnavailable Reason = "RISK_LOOKUP_UNAVAILABLE"
	ReasonAutoApproved          Reason = "AUTO_APPROVED"
	ReasonHumanApproved         Reason = "HUMAN_APPROVED"
	ReasonHumanRejected         Reason = "HUMAN_REJECTED"
	ReasonReviewTimeout         Reason = "REVIEW_TIMEOUT"
)

// Decision is a human reviewer's verdict on a suspended invoice.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// HumanDecision resumes an invoice suspended in AWAITING_HUMAN.
type HumanDecision struct {
	Decision Decision
	Note     string
}

// allowedTransitions is the complete lifecycle table. Transitions are
// monotonic and one-directional; anything not listed here is invalid.
var allowedTransitions = map[State][]State{
	StatePending:       {StateProcessing},
	StateProcessing:    {StateApproved, StateAwaitingHuman, StateRejected},
	StateAwaitingHuman: {StateApproved, StateRejected},
	StateApproved:      nil,
	StateRejected:      nil,
}

func canTransition(from, to State) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Package client holds the NATS-facing pieces: the human decision channel
// subscriber and the workflow event publisher.
package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/axiomfin/be-invoice-review/internal/logger"
	"github.com/axiomfin/be-invoice-review/internal/workflow"
)

// decisionTimeout bounds the orchestrator call made from a NATS callback.
const decisionTimeout = 5 * time.Second

// DecisionSubscriber consumes human review decisions from a NATS subject and
// feeds them to the orchestrator. The core is agnostic to where decisions
// come from; this is the message-queue variant of the decision channel.
type DecisionSubscriber struct {
	conn *nats.Conn
	orch *workflow.Orchestrator
	log  *logger.Logger
	sub  *nats.Subscription
}

// DecisionMessage is the JSON schema expected on the decision subject.
type DecisionMessage struct {
	InvoiceID string `json:"invoice_id"`
	Decision  string `json:"decision"`
	Note      string `json:"note,omitempty"`
}

// NewDecisionSubscriber creates a subscriber bound to the orchestrator.
func NewDecisionSubscriber(conn *nats.Conn, orch *workflow.Orchestrator, log *logger.Logger) *DecisionSubscriber {
	return &DecisionSubscriber{conn: conn, orch: orch, log: log}
}

// Start subscribes to the given subject.
func (s *DecisionSubscriber) Start(subject string) error {
	sub, err := s.conn.Subscribe(subject, s.handle)
	if err != nil {
		return err
	}
	s.sub = sub
	s.log.Info().Str("subject", subject).Msg("Decision subscriber started")
	return nil
}

// Stop drains the subscription.
func (s *DecisionSubscriber) Stop() {
	if s.sub != nil {
		if err := s.sub.Drain(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to drain decision subscription")
		}
	}
}

// handle applies one decision message. Malformed or misdirected messages are
// logged and dropped; a queue retry cannot make them valid.
func (s *DecisionSubscriber) handle(msg *nats.Msg) {
	var dm DecisionMessage
	if err := json.Unmarshal(msg.Data, &dm); err != nil {
		s.log.Warn().Err(err).Str("subject", msg.Subject).Msg("Dropping malformed decision message")
		return
	}
	if dm.InvoiceID == "" {
		s.log.Warn().Str("subject", msg.Subject).Msg("Dropping decision message without invoice id")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), decisionTimeout)
	defer cancel()

	out, err := s.orch.Resume(ctx, dm.InvoiceID, &workflow.HumanDecision{
		Decision: workflow.Decision(dm.Decision),
		Note:     dm.Note,
	})
	if err != nil {
		s.log.Warn().Err(err).
			Str("invoice_id", dm.InvoiceID).
			Str("decision", dm.Decision).
			Msg("Decision message rejected by orchestrator")
		return
	}

	s.log.Info().
		Str("invoice_id", out.InvoiceID).
		Str("state", string(out.State)).
		Str("reason", string(out.Reason)).
		Msg("Human decision applied from queue")
}

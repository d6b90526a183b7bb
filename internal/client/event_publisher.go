package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// EventPublisher publishes workflow events to NATS for consumption by the
// review dashboard and notification services.
//
// Subject convention: notifications.ap.<event_type>
// Event types: invoice_suspended, invoice_approved, invoice_rejected
//
// All publish operations are non-fatal — errors are logged but never
// propagated, so notification failures never interrupt workflow operations.
type EventPublisher struct {
	conn *nats.Conn
	log  zerolog.Logger
}

// WorkflowEvent is the JSON schema published to NATS.
type WorkflowEvent struct {
	EventType string                 `json:"event_type"`
	InvoiceID string                 `json:"invoice_id"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// NewEventPublisher creates a publisher on the given NATS connection.
func NewEventPublisher(conn *nats.Conn, log zerolog.Logger) *EventPublisher {
	return &EventPublisher{conn: conn, log: log}
}

// PublishWorkflowEvent implements workflow.EventPublisher.
func (p *EventPublisher) PublishWorkflowEvent(ctx context.Context, eventType, invoiceID string, payload map[string]interface{}) {
	if p.conn == nil {
		return
	}

	event := &WorkflowEvent{
		EventType: eventType,
		InvoiceID: invoiceID,
		Payload:   payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Str("event_type", eventType).Msg("notification: failed to marshal event")
		return
	}

	subject := fmt.Sprintf("notifications.ap.%s", eventType)
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Str("invoice_id", invoiceID).
			Msg("notification: failed to publish NATS event (non-fatal)")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Str("invoice_id", invoiceID).
		Msg("notification: event published")
}

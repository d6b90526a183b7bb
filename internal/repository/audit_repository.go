// Package repository holds the Postgres-backed persistence used around the
// workflow core. The core itself never touches storage; it talks to the
// audit sink interface and this package implements it.
package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/axiomfin/be-invoice-review/internal/errors"
	"github.com/axiomfin/be-invoice-review/internal/workflow"
)

// AuditEntry is one persisted workflow transition.
type AuditEntry struct {
	ID         int64     `json:"id"`
	InvoiceID  string    `json:"invoice_id"`
	State      string    `json:"state"`
	Reason     string    `json:"reason,omitempty"`
	Variance   *string   `json:"variance,omitempty"`
	Note       *string   `json:"note,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// WorkflowAuditRepository appends and reads immutable workflow transition
// records. Append is the only mutation; the table carries a
// delete-prevention trigger.
type WorkflowAuditRepository struct {
	pool *pgxpool.Pool
}

// NewWorkflowAuditRepository creates a repository on the given pool.
func NewWorkflowAuditRepository(pool *pgxpool.Pool) *WorkflowAuditRepository {
	return &WorkflowAuditRepository{pool: pool}
}

// Append implements workflow.AuditSink.
func (r *WorkflowAuditRepository) Append(ctx context.Context, invoiceID string, tr workflow.Transition) error {
	var variance *string
	if tr.Variance != nil {
		v := tr.Variance.String()
		variance = &v
	}
	var note *string
	if tr.Note != "" {
		note = &tr.Note
	}

	query := `
		INSERT INTO invoice_workflow_audit_log
		    (invoice_id, state, reason, variance, note, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := r.pool.Exec(ctx, query,
		invoiceID,
		string(tr.State),
		string(tr.Reason),
		variance,
		note,
		tr.At,
	); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to append workflow audit entry")
	}
	return nil
}

// GetByInvoiceID returns the full transition trail for an invoice ordered
// oldest-first.
func (r *WorkflowAuditRepository) GetByInvoiceID(ctx context.Context, invoiceID string) ([]*AuditEntry, error) {
	query := `
		SELECT id, invoice_id, state, reason, variance, note, recorded_at
		FROM invoice_workflow_audit_log
		WHERE invoice_id = $1
		ORDER BY recorded_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to read workflow audit log")
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.InvoiceID, &e.State, &e.Reason, &e.Variance, &e.Note, &e.RecordedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan audit entry")
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to iterate audit entries")
	}

	return entries, nil
}

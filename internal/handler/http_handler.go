// Package handler exposes the workflow orchestrator over HTTP. The core
// never serves HTTP itself; this is the deployment surface in front of it.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/axiomfin/be-invoice-review/internal/errors"
	"github.com/axiomfin/be-invoice-review/internal/logger"
	"github.com/axiomfin/be-invoice-review/internal/repository"
	"github.com/axiomfin/be-invoice-review/internal/workflow"
)

// AuditReader serves persisted transition trails. Nil when no database is
// configured.
type AuditReader interface {
	GetByInvoiceID(ctx context.Context, invoiceID string) ([]*repository.AuditEntry, error)
}

// HTTPHandler handles HTTP requests.
type HTTPHandler struct {
	orch     *workflow.Orchestrator
	audit    AuditReader
	validate *validator.Validate
	log      *logger.Logger
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(orch *workflow.Orchestrator, audit AuditReader, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		orch:     orch,
		audit:    audit,
		validate: validator.New(),
		log:      log,
	}
}

type submitRequest struct {
	InvoiceID string            `json:"invoice_id" validate:"required"`
	VendorID  string            `json:"vendor_id" validate:"required"`
	Subtotal  string            `json:"subtotal" validate:"required"`
	Tax       string            `json:"tax" validate:"required"`
	Total     string            `json:"total" validate:"required"`
	Currency  string            `json:"currency" validate:"omitempty,len=3"`
	Metadata  map[string]string `json:"metadata"`
}

type decisionRequest struct {
	InvoiceID string `json:"invoice_id" validate:"required"`
	Decision  string `json:"decision" validate:"required,oneof=APPROVE REJECT"`
	Note      string `json:"note"`
}

type outcomeResponse struct {
	InvoiceID   string               `json:"invoice_id"`
	State       string               `json:"state"`
	ReasonCode  string               `json:"reason_code,omitempty"`
	Variance    *string              `json:"variance,omitempty"`
	Note        string               `json:"note,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
	Transitions []transitionResponse `json:"transitions,omitempty"`
}

type transitionResponse struct {
	State      string    `json:"state"`
	ReasonCode string    `json:"reason_code,omitempty"`
	Variance   *string   `json:"variance,omitempty"`
	Note       string    `json:"note,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// SubmitInvoice handles invoice intake requests.
func (h *HTTPHandler) SubmitInvoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, errors.Wrap(err, errors.ErrCodeInvalidInput, "request validation failed"))
		return
	}

	out, err := h.orch.Submit(r.Context(), &workflow.SubmitRequest{
		InvoiceID: req.InvoiceID,
		VendorID:  req.VendorID,
		Subtotal:  req.Subtotal,
		Tax:       req.Tax,
		Total:     req.Total,
		Currency:  req.Currency,
		Metadata:  req.Metadata,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(out, nil))
}

// DecideInvoice applies a human reviewer decision to a suspended invoice.
func (h *HTTPHandler) DecideInvoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, errors.Wrap(err, errors.ErrCodeInvalidInput, "request validation failed"))
		return
	}

	out, err := h.orch.Resume(r.Context(), req.InvoiceID, &workflow.HumanDecision{
		Decision: workflow.Decision(req.Decision),
		Note:     req.Note,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(out, nil))
}

// GetStatus returns the current state, last reason and transition log for an
// invoice.
func (h *HTTPHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	invoiceID := r.URL.Query().Get("id")
	if invoiceID == "" {
		writeError(w, errors.InvalidInput("id", "invoice id is required"))
		return
	}

	out, err := h.orch.Status(r.Context(), invoiceID)
	if err != nil {
		writeError(w, err)
		return
	}

	history, err := h.orch.History(r.Context(), invoiceID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(out, history))
}

// GetAuditTrail returns the persisted transition trail for an invoice.
func (h *HTTPHandler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.audit == nil {
		writeError(w, errors.New(errors.ErrCodeUnavailable, "audit storage is not configured"))
		return
	}

	invoiceID := r.URL.Query().Get("id")
	if invoiceID == "" {
		writeError(w, errors.InvalidInput("id", "invoice id is required"))
		return
	}

	entries, err := h.audit.GetByInvoiceID(r.Context(), invoiceID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"invoice_id": invoiceID,
		"entries":    entries,
	})
}

func toResponse(out *workflow.Outcome, history []workflow.Transition) outcomeResponse {
	resp := outcomeResponse{
		InvoiceID:  out.InvoiceID,
		State:      string(out.State),
		ReasonCode: string(out.Reason),
		Note:       out.Note,
		Timestamp:  out.Timestamp,
	}
	if out.Variance != nil {
		v := out.Variance.StringFixed(2)
		resp.Variance = &v
	}
	for _, tr := range history {
		item := transitionResponse{
			State:      string(tr.State),
			ReasonCode: string(tr.Reason),
			Note:       tr.Note,
			Timestamp:  tr.At,
		}
		if tr.Variance != nil {
			v := tr.Variance.StringFixed(2)
			item.Variance = &v
		}
		resp.Transitions = append(resp.Transitions, item)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.CodeOf(err)
	var status int
	switch code {
	case errors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeConflict:
		status = http.StatusConflict
	case errors.ErrCodeUnavailable:
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  string(code),
	})
}

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/outreach-monitor/internal/domain"
	"github.com/ignite/outreach-monitor/internal/pkg/httputil"
	"github.com/ignite/outreach-monitor/internal/render"
	"github.com/ignite/outreach-monitor/internal/service/email"
)

// ListEmails returns drafts, optionally filtered by status and lead_id.
func (h *Handlers) ListEmails(w http.ResponseWriter, r *http.Request) {
	f := email.Filter{
		Status: domain.EmailStatus(r.URL.Query().Get("status")),
		LeadID: r.URL.Query().Get("lead_id"),
	}

	emails, err := h.emails.List(r.Context(), f)
	if err != nil {
		writeEmailError(w, err)
		return
	}
	if emails == nil {
		emails = []domain.Email{}
	}
	httputil.OK(w, map[string]any{"emails": emails, "count": len(emails)})
}

// GetEmail returns one draft with its lead attached.
func (h *Handlers) GetEmail(w http.ResponseWriter, r *http.Request) {
	e, err := h.emails.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEmailError(w, err)
		return
	}
	httputil.OK(w, e)
}

// UpdateEmailContent edits a draft's subject and/or body.
func (h *Handlers) UpdateEmailContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	err := h.emails.UpdateContent(r.Context(), chi.URLParam(r, "id"), req.Subject, req.Body)
	if err != nil {
		writeEmailError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"success": true})
}

// ApproveEmail approves one draft.
func (h *Handlers) ApproveEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.emails.Approve(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeEmailError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"success": true})
}

// RejectEmail rejects one draft.
func (h *Handlers) RejectEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.emails.Reject(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeEmailError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"success": true})
}

// BulkApproveEmails approves a batch, skipping missing or ineligible drafts.
func (h *Handlers) BulkApproveEmails(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		httputil.BadRequest(w, "ids is required")
		return
	}

	result, err := h.emails.BulkApprove(r.Context(), req.IDs)
	if err != nil {
		writeEmailError(w, err)
		return
	}
	httputil.OK(w, result)
}

// PreviewEmail renders the draft's merge tags against its lead. The
// response lists the available tags so the editor can offer them.
func (h *Handlers) PreviewEmail(w http.ResponseWriter, r *http.Request) {
	p, err := h.emails.RenderPreview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEmailError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"subject":   p.Subject,
		"body":      p.Body,
		"variables": render.Vars(),
	})
}

// GetEmailTracking returns the engagement tracking row for a sent email.
func (h *Handlers) GetEmailTracking(w http.ResponseWriter, r *http.Request) {
	t, err := h.emails.GetTracking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEmailError(w, err)
		return
	}
	httputil.OK(w, t)
}

func writeEmailError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, email.ErrNotFound):
		httputil.NotFound(w, "email not found")
	case errors.Is(err, email.ErrLeadNotFound):
		httputil.NotFound(w, "lead not found")
	case errors.Is(err, email.ErrInvalidStatus):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, email.ErrInvalidTransition):
		httputil.Conflict(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

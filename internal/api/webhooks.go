package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/ignite/outreach-monitor/internal/domain"
	"github.com/ignite/outreach-monitor/internal/orchestrator"
	"github.com/ignite/outreach-monitor/internal/pkg/httputil"
	"github.com/ignite/outreach-monitor/internal/pkg/logger"
	"github.com/ignite/outreach-monitor/internal/service/email"
	"github.com/ignite/outreach-monitor/internal/service/lead"
)

// emailGeneratedRequest is the engine's draft callback. Success defaults to
// true; the engine sets it false when drafting failed for a lead, in which
// case subject and body are absent and only the lead moves.
type emailGeneratedRequest struct {
	LeadID   string         `json:"leadId"`
	Subject  string         `json:"subject"`
	Body     string         `json:"body"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Success  *bool          `json:"success,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// HandleEmailGenerated accepts a drafted email from the workflow engine.
// Duplicate deliveries (n8n retries its HTTP node) are recognized by an
// idempotency key and acknowledged without a second write.
func (h *Handlers) HandleEmailGenerated(w http.ResponseWriter, r *http.Request) {
	var req emailGeneratedRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.LeadID == "" {
		httputil.BadRequest(w, "leadId is required")
		return
	}

	if req.Success != nil && !*req.Success {
		logger.Warn("engine reported generation failure",
			"lead_id", req.LeadID, "error", req.Error)
		if err := h.leads.ApplyEvent(r.Context(), req.LeadID, domain.LeadEventGenerationFailed); err != nil {
			writeCallbackError(w, err)
			return
		}
		httputil.OK(w, map[string]any{"success": true})
		return
	}

	if req.Subject == "" || req.Body == "" {
		httputil.BadRequest(w, "subject and body are required")
		return
	}

	key := orchestrator.GenerationKey(req.LeadID, req.Subject, req.Body)
	seen, err := h.deduper.Seen(r.Context(), key)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if seen {
		httputil.OK(w, map[string]any{"success": true, "duplicate": true})
		return
	}

	e, err := h.emails.CreateDraft(r.Context(), req.LeadID, req.Subject, req.Body)
	if err != nil {
		h.releaseDedup(r.Context(), key)
		writeCallbackError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"success": true, "emailId": e.ID})
}

// emailSentRequest is the engine's dispatch confirmation.
type emailSentRequest struct {
	EmailID   string `json:"emailId"`
	MessageID string `json:"messageId"`
	Provider  string `json:"provider"`
	Success   *bool  `json:"success,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleEmailSent accepts a send confirmation from the workflow engine.
func (h *Handlers) HandleEmailSent(w http.ResponseWriter, r *http.Request) {
	var req emailSentRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.EmailID == "" {
		httputil.BadRequest(w, "emailId is required")
		return
	}

	if req.Success != nil && !*req.Success {
		logger.Warn("engine reported send failure",
			"email_id", req.EmailID, "error", req.Error)
		if err := h.emails.MarkSendFailed(r.Context(), req.EmailID); err != nil {
			writeCallbackError(w, err)
			return
		}
		httputil.OK(w, map[string]any{"success": true})
		return
	}

	if req.MessageID == "" {
		httputil.BadRequest(w, "messageId is required")
		return
	}

	key := orchestrator.SentKey(req.EmailID, req.MessageID)
	seen, err := h.deduper.Seen(r.Context(), key)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if seen {
		httputil.OK(w, map[string]any{"success": true, "duplicate": true})
		return
	}

	provider := req.Provider
	if provider == "" {
		provider = "n8n"
	}
	if err := h.emails.MarkSent(r.Context(), req.EmailID, provider, req.MessageID); err != nil {
		h.releaseDedup(r.Context(), key)
		writeCallbackError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"success": true})
}

// releaseDedup frees an idempotency key whose mutation did not commit, so
// the engine's retry is not acknowledged as a duplicate of nothing.
func (h *Handlers) releaseDedup(ctx context.Context, key string) {
	if err := h.deduper.Release(ctx, key); err != nil {
		logger.Warn("dedup key release failed", "key", key, "error", err.Error())
	}
}

// writeCallbackError maps store failures for the engine. The engine only
// distinguishes 2xx from the rest, but the codes still help when reading
// execution logs.
func writeCallbackError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, email.ErrNotFound), errors.Is(err, email.ErrLeadNotFound),
		errors.Is(err, lead.ErrNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, email.ErrInvalidTransition):
		httputil.Conflict(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

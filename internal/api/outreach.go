package api

import (
	"errors"
	"net/http"

	"github.com/ignite/outreach-monitor/internal/orchestrator"
	"github.com/ignite/outreach-monitor/internal/pkg/httputil"
	"github.com/ignite/outreach-monitor/internal/service/setting"
)

// TriggerGeneration asks the workflow engine to draft emails for the given
// leads. Missing webhook configuration fails before any network call.
func (h *Handlers) TriggerGeneration(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LeadIDs []string `json:"leadIds"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.LeadIDs) == 0 {
		httputil.BadRequest(w, "leadIds is required")
		return
	}

	result, err := h.orchestrator.TriggerGeneration(r.Context(), req.LeadIDs)
	if err != nil {
		writeTriggerError(w, err)
		return
	}
	httputil.OK(w, result)
}

// TriggerSending asks the engine to dispatch the given approved emails.
func (h *Handlers) TriggerSending(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmailIDs []string `json:"emailIds"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.EmailIDs) == 0 {
		httputil.BadRequest(w, "emailIds is required")
		return
	}

	result, err := h.orchestrator.TriggerSending(r.Context(), req.EmailIDs)
	if err != nil {
		writeTriggerError(w, err)
		return
	}
	httputil.OK(w, result)
}

func writeTriggerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, setting.ErrNotConfigured):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, orchestrator.ErrNoLeads), errors.Is(err, orchestrator.ErrNoEmails):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, orchestrator.ErrEngine):
		httputil.BadGateway(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/outreach-monitor/internal/domain"
	"github.com/ignite/outreach-monitor/internal/pkg/httputil"
	"github.com/ignite/outreach-monitor/internal/service/lead"
	"github.com/ignite/outreach-monitor/internal/worker"
)

// maxUploadBytes bounds lead CSV uploads.
const maxUploadBytes = 25 << 20

// ListLeads returns leads, optionally filtered by service_type and status.
func (h *Handlers) ListLeads(w http.ResponseWriter, r *http.Request) {
	f := lead.Filter{
		ServiceType: domain.ServiceType(r.URL.Query().Get("service_type")),
		Status:      domain.LeadStatus(r.URL.Query().Get("status")),
	}

	leads, err := h.leads.List(r.Context(), f)
	if err != nil {
		writeLeadError(w, err)
		return
	}
	if leads == nil {
		leads = []domain.Lead{}
	}
	httputil.OK(w, map[string]any{"leads": leads, "count": len(leads)})
}

// GetLead returns one lead.
func (h *Handlers) GetLead(w http.ResponseWriter, r *http.Request) {
	l, err := h.leads.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeLeadError(w, err)
		return
	}
	httputil.OK(w, l)
}

// UploadLeads accepts a multipart CSV upload under "file" with a
// "service_type" form field, parses it, and bulk-inserts the rows.
func (h *Handlers) UploadLeads(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.BadRequest(w, "invalid multipart form: "+err.Error())
		return
	}

	serviceType := domain.ServiceType(r.FormValue("service_type"))
	if !serviceType.Valid() {
		httputil.BadRequest(w, "service_type must be ai or web-design")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "csv file is required under field 'file'")
		return
	}
	defer file.Close()

	parsed, err := worker.ParseLeadCSV(file)
	if err != nil {
		httputil.BadRequest(w, "parse csv: "+err.Error())
		return
	}

	result, err := h.leads.BulkUpload(r.Context(), serviceType, parsed.Rows, "")
	if err != nil {
		writeLeadError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"inserted":   result.Inserted,
		"duplicates": result.Duplicates,
		"errors":     result.Errors,
		"skipped":    parsed.Skipped,
	})
}

// UpdateLeadStatus applies a direct status change requested by the reviewer.
func (h *Handlers) UpdateLeadStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status domain.LeadStatus `json:"status"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	err := h.leads.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeLeadError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"success": true})
}

// DeleteLead removes one lead and everything hanging off it.
func (h *Handlers) DeleteLead(w http.ResponseWriter, r *http.Request) {
	if err := h.leads.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeLeadError(w, err)
		return
	}
	httputil.NoContent(w)
}

// BulkDeleteLeads removes a batch of leads, skipping ids that are gone.
func (h *Handlers) BulkDeleteLeads(w http.ResponseWriter, r *http.Request) {
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

	deleted, err := h.leads.BulkDelete(r.Context(), req.IDs)
	if err != nil {
		writeLeadError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"deleted": deleted})
}

func writeLeadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lead.ErrNotFound):
		httputil.NotFound(w, "lead not found")
	case errors.Is(err, lead.ErrInvalidService), errors.Is(err, lead.ErrInvalidStatus):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, lead.ErrInvalidTransition):
		httputil.Conflict(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

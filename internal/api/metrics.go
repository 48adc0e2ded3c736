package api

import (
	"errors"
	"net/http"

	"github.com/ignite/outreach-monitor/internal/domain"
	"github.com/ignite/outreach-monitor/internal/pkg/httputil"
	"github.com/ignite/outreach-monitor/internal/service/metrics"
)

// GetFunnel returns the outreach funnel, optionally for one service type.
func (h *Handlers) GetFunnel(w http.ResponseWriter, r *http.Request) {
	serviceType := domain.ServiceType(r.URL.Query().Get("service_type"))
	f, err := h.metrics.Funnel(r.Context(), serviceType)
	if err != nil {
		if errors.Is(err, metrics.ErrInvalidService) {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, f)
}

// GetBreakdown returns one funnel per service type.
func (h *Handlers) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	b, err := h.metrics.Breakdown(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, b)
}

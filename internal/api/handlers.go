// Package api exposes the dashboard HTTP surface: lead and email CRUD,
// outreach triggers, engine callbacks, metrics, and settings.
package api

import (
	"net/http"
	"time"

	"github.com/ignite/outreach-monitor/internal/orchestrator"
	"github.com/ignite/outreach-monitor/internal/pkg/httputil"
	"github.com/ignite/outreach-monitor/internal/service/email"
	"github.com/ignite/outreach-monitor/internal/service/lead"
	"github.com/ignite/outreach-monitor/internal/service/metrics"
	"github.com/ignite/outreach-monitor/internal/service/setting"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	leads        *lead.Service
	emails       *email.Service
	metrics      *metrics.Service
	settings     *setting.Service
	orchestrator *orchestrator.Service
	deduper      *orchestrator.Deduper
	startedAt    time.Time
}

// NewHandlers creates a Handlers instance wired to the service layer.
func NewHandlers(
	leads *lead.Service,
	emails *email.Service,
	metricsSvc *metrics.Service,
	settings *setting.Service,
	orch *orchestrator.Service,
	deduper *orchestrator.Deduper,
) *Handlers {
	return &Handlers{
		leads:        leads,
		emails:       emails,
		metrics:      metricsSvc,
		settings:     settings,
		orchestrator: orch,
		deduper:      deduper,
		startedAt:    time.Now(),
	}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.startedAt).String(),
	})
}

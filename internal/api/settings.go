package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/outreach-monitor/internal/domain"
	"github.com/ignite/outreach-monitor/internal/pkg/httputil"
	"github.com/ignite/outreach-monitor/internal/service/setting"
)

// ListSettings returns all settings.
func (h *Handlers) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.List(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if settings == nil {
		settings = []domain.Setting{}
	}
	httputil.OK(w, map[string]any{"settings": settings})
}

// SetSetting upserts one setting.
func (h *Handlers) SetSetting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key   string `json:"key"`
		Value any    `json:"value"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Key == "" {
		httputil.BadRequest(w, "key is required")
		return
	}

	if err := h.settings.Set(r.Context(), req.Key, req.Value); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"success": true})
}

// DeleteSetting removes one setting.
func (h *Handlers) DeleteSetting(w http.ResponseWriter, r *http.Request) {
	err := h.settings.Delete(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		if errors.Is(err, setting.ErrNotFound) {
			httputil.NotFound(w, "setting not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}

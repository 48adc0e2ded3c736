package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/outreach-monitor/internal/auth"
)

// SetupRoutes configures the router. authManager may be nil for tests or
// local runs without OAuth credentials.
func SetupRoutes(h *Handlers, authManager *auth.Manager, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if authManager != nil {
		r.Use(authManager.RequireAuth)
	}

	r.Get("/health", h.HealthCheck)

	if authManager != nil {
		r.Get("/auth/login", authManager.HandleLogin)
		r.Get("/auth/callback", authManager.HandleCallback)
		r.Get("/auth/logout", authManager.HandleLogout)
		r.Get("/auth/user", authManager.HandleUserInfo)
	}

	// Engine callbacks: unauthenticated, the engine holds no session.
	r.Post("/webhook/email-generated", h.HandleEmailGenerated)
	r.Post("/webhook/email-sent", h.HandleEmailSent)

	r.Route("/api", func(r chi.Router) {
		r.Route("/leads", func(r chi.Router) {
			r.Get("/", h.ListLeads)
			r.Post("/upload", h.UploadLeads)
			r.Post("/bulk-delete", h.BulkDeleteLeads)
			r.Get("/{id}", h.GetLead)
			r.Patch("/{id}/status", h.UpdateLeadStatus)
			r.Delete("/{id}", h.DeleteLead)
		})

		r.Route("/emails", func(r chi.Router) {
			r.Get("/", h.ListEmails)
			r.Post("/bulk-approve", h.BulkApproveEmails)
			r.Get("/{id}", h.GetEmail)
			r.Patch("/{id}", h.UpdateEmailContent)
			r.Post("/{id}/approve", h.ApproveEmail)
			r.Post("/{id}/reject", h.RejectEmail)
			r.Get("/{id}/preview", h.PreviewEmail)
			r.Get("/{id}/tracking", h.GetEmailTracking)
		})

		r.Route("/outreach", func(r chi.Router) {
			r.Post("/generate", h.TriggerGeneration)
			r.Post("/send", h.TriggerSending)
		})

		r.Route("/metrics", func(r chi.Router) {
			r.Get("/funnel", h.GetFunnel)
			r.Get("/breakdown", h.GetBreakdown)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.ListSettings)
			r.Put("/", h.SetSetting)
			r.Delete("/{key}", h.DeleteSetting)
		})
	})

	return r
}

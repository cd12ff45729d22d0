// Package router assembles the HTTP surface: the public webhook, health
// checks, Prometheus metrics, and the JWT-protected admin endpoints.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mydailysportsreport/whatsapp-bot/internal/http/handlers"
	httpmiddleware "github.com/mydailysportsreport/whatsapp-bot/internal/http/middleware"
	"github.com/mydailysportsreport/whatsapp-bot/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger          *logging.Logger
	Webhook         *handlers.WebhookHandler
	TriggerReport   *handlers.TriggerReportHandler
	AdminAuthSecret string
	MetricsHandler  http.Handler
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (webhook, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/", handlers.Health)
		public.Get("/health", handlers.Health)
		if cfg.Webhook != nil {
			public.Get("/webhook", cfg.Webhook.Verify)
			public.Post("/webhook", cfg.Webhook.Receive)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Admin endpoints (JWT protected)
	if cfg.TriggerReport != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Post("/trigger-report", cfg.TriggerReport.Trigger)
		})
	}

	return r
}

package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/paycore/processor-gateway/internal/http/middleware"
	"github.com/paycore/processor-gateway/internal/webhooks"
	"github.com/paycore/processor-gateway/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger     *logging.Logger
	Processors Catalog
	Webhooks   *webhooks.Handler
	// WebhookLimiter throttles webhook deliveries per client IP (optional).
	WebhookLimiter *httpmiddleware.RateLimiter
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", health(cfg.Processors))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.Processors != nil {
		r.Get("/processors", listProcessors(cfg.Processors))
	}
	if cfg.Webhooks != nil {
		r.With(httpmiddleware.RateLimit(cfg.WebhookLimiter)).
			Post("/webhooks/{processor}", cfg.Webhooks.Handle)
	}

	return r
}

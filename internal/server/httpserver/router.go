// Package httpserver provides the HTTP/HTTPS server for chainstate.
package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/chainstate-go/internal/core/service"
	"github.com/yndnr/chainstate-go/internal/server/httpserver/handler"
	"github.com/yndnr/chainstate-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Store is the application state served by the API.
	Store *service.Store

	// Phases reports the rehydration phase (optional).
	Phases handler.PhaseReporter

	// Logger for request logging.
	Logger *slog.Logger

	// Metrics enables /metrics and request metrics when set.
	Metrics *metric.Registry

	// RateLimit is the rate limit per client IP (requests/second). Zero disables it.
	RateLimit float64
	RateBurst int

	// EnableAudit enables audit logging for API requests.
	EnableAudit bool
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	h := handler.New(cfg.Store, cfg.Phases, log)

	mux := http.NewServeMux()

	// Health endpoints - never rate limited
	healthHandler := Chain(h, RequestID(), Recover(log))
	mux.Handle("GET /health", healthHandler)
	mux.Handle("GET /ready", healthHandler)

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), Recover(log)))
	}

	// API endpoints
	// Order: RequestID -> Recover -> Metrics -> RateLimit -> Audit -> Handler
	apiMiddlewares := []Middleware{RequestID(), Recover(log)}
	if cfg.Metrics != nil {
		apiMiddlewares = append(apiMiddlewares, Metrics(cfg.Metrics))
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		apiMiddlewares = append(apiMiddlewares, RateLimit(cfg.RateLimit, burst))
	}
	if cfg.EnableAudit {
		apiMiddlewares = append(apiMiddlewares, Audit(log))
	}
	apiHandler := Chain(h, apiMiddlewares...)

	// State endpoints
	mux.Handle("GET /v1/state", apiHandler)
	mux.Handle("GET /v1/chains", apiHandler)
	mux.Handle("GET /v1/chains/{chain}", apiHandler)
	mux.Handle("POST /v1/rebuild", apiHandler)
	mux.Handle("PUT /v1/banner", apiHandler)

	// Override endpoints
	mux.Handle("GET /v1/overrides", apiHandler)
	mux.Handle("PUT /v1/overrides", apiHandler)
	mux.Handle("PUT /v1/overrides/{chain}", apiHandler)
	mux.Handle("DELETE /v1/overrides/{chain}", apiHandler)

	return mux
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		RateLimit:   50,
		RateBurst:   20,
		EnableAudit: true,
	}
}

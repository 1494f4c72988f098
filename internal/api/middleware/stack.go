// SPDX-License-Identifier: MIT

// Package middleware provides the canonical HTTP ingress stack for the
// d8analysis API: panic recovery, request correlation, CORS, security
// headers, metrics, tracing, request logging and rate limiting.
package middleware

import (
	"time"

	"github.com/go-chi/chi/v5"
)

// StackConfig configures the canonical HTTP ingress middleware stack.
// Keeping a single entry point prevents drift in cross-cutting concerns
// between the API listener and any auxiliary listeners.
type StackConfig struct {
	// CORS
	EnableCORS     bool
	AllowedOrigins []string

	// Security headers
	EnableSecurityHeaders bool
	CSP                   string

	// Observability
	EnableMetrics  bool
	TracingService string // empty disables tracing
	EnableLogging  bool

	// Rate limiting (per client IP)
	EnableRateLimit   bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter constructs a chi router with the canonical middleware stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack applies the canonical middleware stack to r. Order matters:
// the recoverer sits outermost so nothing below it can take the process
// down, request correlation runs before every stage that logs, CORS
// answers preflights before any policy gets a chance to reject them,
// and rate limiting sits innermost so rejected requests still carry
// security headers and show up in metrics and traces.
func ApplyStack(r chi.Router, cfg StackConfig) {
	r.Use(Recoverer)
	r.Use(RequestID)

	if cfg.EnableCORS {
		r.Use(CORS(cfg.AllowedOrigins))
	}
	if cfg.EnableSecurityHeaders {
		r.Use(SecurityHeaders(cfg.CSP))
	}
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	if cfg.TracingService != "" {
		r.Use(Tracing(cfg.TracingService))
	}
	if cfg.EnableLogging {
		r.Use(Logging())
	}
	if cfg.EnableRateLimit {
		r.Use(APIRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}
}

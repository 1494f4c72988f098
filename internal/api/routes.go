// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/john-james-ai/d8analysis/internal/api/middleware"
	"github.com/john-james-ai/d8analysis/internal/auth"
)

// Router assembles the full HTTP handler: canonical middleware stack,
// health probes and the authenticated /api/v1 surface.
func (s *Server) Router() http.Handler {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()

	tracingService := ""
	if cfg.Telemetry.Enabled {
		tracingService = "d8analysis-api"
	}

	r := middleware.NewRouter(middleware.StackConfig{
		EnableCORS:            true,
		AllowedOrigins:        cfg.CORSOrigins,
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        tracingService,
		EnableLogging:         true,
		EnableRateLimit:       cfg.RateLimit.Enabled,
		RateLimitRequests:     cfg.RateLimit.Requests,
		RateLimitWindow:       cfg.RateLimit.Window,
	})

	r.NotFound(notFoundHandler)
	r.MethodNotAllowed(methodNotAllowedHandler)

	// Infrastructure probes stay outside auth, load balancers own them.
	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		// Read surface
		r.Group(func(r chi.Router) {
			r.Use(s.requireScope(auth.ScopeRead))

			r.Get("/status", s.handleStatus)
			r.Get("/version", s.handleVersion)

			r.Get("/datasets", s.handleListDatasets)
			r.Get("/datasets/{id}", s.handleGetDataset)
			r.Get("/datasets/{id}/sample", s.handleSample)
			r.Get("/datasets/{id}/describe", s.handleDescribe)
			r.Get("/datasets/{id}/frequency", s.handleFrequency)
			r.Get("/datasets/{id}/histogram", s.handleHistogram)
			r.Get("/datasets/{id}/correlation", s.handleCorrelation)
			r.Get("/datasets/{id}/report", s.handleDatasetReport)
			r.Get("/datasets/{id}/runs", s.handleListRuns)

			r.Get("/runs/{id}", s.handleGetRun)
			r.Get("/runs/{id}/report", s.handleRunReport)
		})

		// Write surface
		r.Group(func(r chi.Router) {
			r.Use(s.requireScope(auth.ScopeWrite))

			r.Post("/datasets", s.handleRegisterDataset)
			r.Delete("/datasets/{id}", s.handleDeleteDataset)

			r.Group(func(r chi.Router) {
				if cfg.RateLimit.Enabled {
					r.Use(middleware.ProfileRateLimit(cfg.RateLimit.ProfileTrigger, cfg.RateLimit.Window))
				}
				r.Post("/datasets/{id}/profile", s.handleTriggerProfile)
			})
		})
	})

	return r
}

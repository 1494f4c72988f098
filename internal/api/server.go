// SPDX-License-Identifier: MIT

// Package api implements the HTTP surface of the d8analysis service:
// dataset registration, profile runs and ad-hoc analysis queries, all
// under /api/v1 with problem+json errors.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/john-james-ai/d8analysis/internal/cache"
	"github.com/john-james-ai/d8analysis/internal/catalog"
	"github.com/john-james-ai/d8analysis/internal/config"
	"github.com/john-james-ai/d8analysis/internal/dataset"
	"github.com/john-james-ai/d8analysis/internal/health"
	"github.com/john-james-ai/d8analysis/internal/jobs"
)

// DatasetLoader resolves catalog records to parsed datasets.
type DatasetLoader interface {
	Load(ctx context.Context, rec *catalog.DatasetRecord) (*dataset.Dataset, error)
}

// ProfileTrigger starts background profile runs.
type ProfileTrigger interface {
	TriggerProfile(ctx context.Context, datasetID string) (string, error)
}

// Deps are the collaborators the server needs. All fields are required
// unless noted.
type Deps struct {
	Catalog *catalog.Store
	Results ResultReader
	Cache   cache.Cache
	Loader  DatasetLoader
	Trigger ProfileTrigger
	Health  *health.Manager
}

// ResultReader fetches stored run reports.
type ResultReader interface {
	Get(ctx context.Context, runID string) ([]byte, error)
}

// Server is the API server for the d8analysis service.
type Server struct {
	mu  sync.RWMutex
	cfg config.AppConfig

	catalog *catalog.Store
	results ResultReader
	cache   cache.Cache
	loader  DatasetLoader
	trigger ProfileTrigger
	health  *health.Manager

	startTime time.Time
}

// New creates an API server.
func New(cfg config.AppConfig, deps Deps) (*Server, error) {
	if deps.Catalog == nil {
		return nil, errors.New("api: catalog is required")
	}
	if deps.Results == nil {
		return nil, errors.New("api: result store is required")
	}
	if deps.Loader == nil {
		return nil, errors.New("api: dataset loader is required")
	}
	if deps.Trigger == nil {
		return nil, errors.New("api: profile trigger is required")
	}
	if deps.Health == nil {
		deps.Health = health.NewManager(cfg.Version)
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewNoOpCache()
	}

	SetTrustedProxies(cfg.TrustedProxies)

	return &Server{
		cfg:       cfg,
		catalog:   deps.Catalog,
		results:   deps.Results,
		cache:     deps.Cache,
		loader:    deps.Loader,
		trigger:   deps.Trigger,
		health:    deps.Health,
		startTime: time.Now(),
	}, nil
}

// Config returns a copy of the current configuration.
func (s *Server) Config() config.AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// UpdateConfig swaps the active configuration after a hot reload. The
// router, middleware stack and trusted proxy set are built at startup, so
// fields feeding those take effect only after a restart.
func (s *Server) UpdateConfig(cfg config.AppConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// Health exposes the health manager so the daemon can register checkers.
func (s *Server) Health() *health.Manager {
	return s.health
}

// maxUploadBytes returns the configured upload cap with a safe default.
func (s *Server) maxUploadBytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg.MaxUploadBytes > 0 {
		return s.cfg.MaxUploadBytes
	}
	return 512 << 20 // 512 MiB
}

var _ ProfileTrigger = (*jobs.Runner)(nil)
var _ DatasetLoader = (*jobs.FileLoader)(nil)

// notFoundHandler returns problem+json for unknown routes, so clients
// never see chi's plain-text 404 on the API prefix.
func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeProblem(w, r, http.StatusNotFound, "error/route_not_found", "Route not found", "ROUTE_NOT_FOUND", "", nil)
}

// methodNotAllowedHandler mirrors notFoundHandler for wrong verbs.
func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	writeProblem(w, r, http.StatusMethodNotAllowed, "error/method_not_allowed", "Method not allowed", "METHOD_NOT_ALLOWED", "", nil)
}

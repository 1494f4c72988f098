// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"time"

	"github.com/john-james-ai/d8analysis/internal/cache"
	"github.com/john-james-ai/d8analysis/internal/log"
	"github.com/john-james-ai/d8analysis/internal/version"
)

// StatusResponse defines the v1 status contract.
// This structure is STABLE and must not change in backwards-incompatible ways.
type StatusResponse struct {
	Status        string      `json:"status"`
	Version       string      `json:"version"`
	UptimeSeconds int64       `json:"uptimeSeconds"`
	Datasets      int         `json:"datasets"`
	LastRun       time.Time   `json:"lastRun"`
	LastRunError  string      `json:"lastRunError,omitempty"`
	Cache         cache.Stats `json:"cache"`
}

// VersionResponse is the payload of GET /api/v1/version.
type VersionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// handleVersion implements GET /api/v1/version
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{
		Version: version.Version,
		Commit:  version.Commit,
		Date:    version.Date,
	})
}

// lastRunReporter is implemented by triggers that track their most
// recent run, the jobs runner among them.
type lastRunReporter interface {
	LastRun() (time.Time, string)
}

// handleStatus implements GET /api/v1/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	datasets, err := s.catalog.ListDatasets(r.Context())
	if err != nil {
		logger.Error().Err(err).Str("event", "status.catalog_error").Msg("could not list datasets")
		RespondError(w, r, http.StatusServiceUnavailable, ErrServiceUnavailable)
		return
	}

	s.mu.RLock()
	version := s.cfg.Version
	started := s.startTime
	s.mu.RUnlock()

	resp := StatusResponse{
		Status:        "ok",
		Version:       version,
		UptimeSeconds: int64(time.Since(started).Seconds()),
		Datasets:      len(datasets),
		Cache:         s.cache.Stats(),
	}
	if reporter, ok := s.trigger.(lastRunReporter); ok {
		resp.LastRun, resp.LastRunError = reporter.LastRun()
	}

	w.Header().Set("X-API-Version", "1")
	writeJSON(w, http.StatusOK, resp)

	logger.Debug().
		Str("event", "status.success").
		Str("version", version).
		Int("datasets", resp.Datasets).
		Msg("status request handled")
}

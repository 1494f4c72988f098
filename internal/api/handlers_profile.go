// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/john-james-ai/d8analysis/internal/catalog"
	"github.com/john-james-ai/d8analysis/internal/jobs"
	"github.com/john-james-ai/d8analysis/internal/log"
	"github.com/john-james-ai/d8analysis/internal/profile"
)

// TriggerProfileResponse acknowledges an accepted profiling run.
type TriggerProfileResponse struct {
	RunID     string `json:"runId"`
	DatasetID string `json:"datasetId"`
	Status    string `json:"status"`
}

// handleTriggerProfile implements POST /api/v1/datasets/{id}/profile.
// Profiling runs in the background, the response only carries the run id.
func (s *Server) handleTriggerProfile(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")
	id := chi.URLParam(r, "id")

	runID, err := s.trigger.TriggerProfile(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			RespondError(w, r, http.StatusNotFound, ErrDatasetNotFound)
		case errors.Is(err, jobs.ErrAlreadyRunning):
			RespondError(w, r, http.StatusConflict, ErrProfileInProgress)
		default:
			logger.Error().Err(err).Str("event", "profile.trigger_error").Str(log.FieldDatasetID, id).Msg("could not start profiling run")
			RespondError(w, r, http.StatusInternalServerError, ErrInternalServer)
		}
		return
	}

	logger.Info().
		Str("event", "profile.triggered").
		Str(log.FieldDatasetID, id).
		Str(log.FieldRunID, runID).
		Msg("profiling run accepted")

	w.Header().Set("Location", "/api/v1/runs/"+runID)
	writeJSON(w, http.StatusAccepted, TriggerProfileResponse{
		RunID:     runID,
		DatasetID: id,
		Status:    catalog.RunStatusRunning,
	})
}

// ListRunsResponse wraps the run collection.
type ListRunsResponse struct {
	Runs  []*catalog.RunRecord `json:"runs"`
	Count int                  `json:"count"`
}

// handleListRuns implements GET /api/v1/datasets/{id}/runs, newest first.
// Optional query param limit caps the result (default 50, max 500).
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.datasetRecord(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			RespondError(w, r, http.StatusBadRequest, ErrInvalidInput, "limit must be an integer between 1 and 500")
			return
		}
		limit = n
	}

	runs, err := s.catalog.ListRuns(r.Context(), rec.ID, limit)
	if err != nil {
		log.FromContext(r.Context()).Error().Err(err).Str("event", "runs.list_error").Msg("could not list runs")
		RespondError(w, r, http.StatusServiceUnavailable, ErrServiceUnavailable)
		return
	}
	if runs == nil {
		runs = []*catalog.RunRecord{}
	}
	writeJSON(w, http.StatusOK, ListRunsResponse{Runs: runs, Count: len(runs)})
}

// handleGetRun implements GET /api/v1/runs/{id}
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runRecord(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleRunReport implements GET /api/v1/runs/{id}/report. The report is
// served from the result store, falling back to the report file when the
// stored copy has expired.
func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runRecord(w, r)
	if !ok {
		return
	}

	switch run.Status {
	case catalog.RunStatusRunning:
		RespondError(w, r, http.StatusConflict, ErrReportNotReady)
		return
	case catalog.RunStatusSuccess:
		// fall through to the report lookup
	default:
		RespondError(w, r, http.StatusNotFound, ErrReportNotFound,
			"run finished with status "+run.Status)
		return
	}

	payload, err := s.results.Get(r.Context(), run.ID)
	if err == nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, werr := w.Write(payload); werr != nil {
			log.FromContext(r.Context()).Debug().Err(werr).Msg("client went away while streaming report")
		}
		return
	}

	// Expired or lost store entry. The report file on disk is keyed by
	// dataset id, serve it when the run produced one.
	report, rerr := s.reportFromDisk(run)
	if rerr != nil {
		log.FromContext(r.Context()).Warn().
			Err(err).
			Str("event", "report.unavailable").
			Str(log.FieldRunID, run.ID).
			Msg("report not in result store and not on disk")
		RespondError(w, r, http.StatusNotFound, ErrReportNotFound)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// reportFromDisk loads the persisted report behind a successful run.
func (s *Server) reportFromDisk(run *catalog.RunRecord) (*profile.Report, error) {
	s.mu.RLock()
	reportDir := s.cfg.ReportDir
	s.mu.RUnlock()

	if reportDir == "" || run.DatasetID == "" {
		return nil, os.ErrNotExist
	}
	return profile.ReadReport(reportDir, run.DatasetID)
}

// handleDatasetReport implements GET /api/v1/datasets/{id}/report,
// returning the most recent completed profile for the dataset.
func (s *Server) handleDatasetReport(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.datasetRecord(w, r)
	if !ok {
		return
	}

	s.mu.RLock()
	reportDir := s.cfg.ReportDir
	s.mu.RUnlock()

	report, err := profile.ReadReport(reportDir, rec.ID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			RespondError(w, r, http.StatusNotFound, ErrReportNotFound,
				"no completed profile for this dataset, trigger one with POST /api/v1/datasets/"+rec.ID+"/profile")
			return
		}
		log.FromContext(r.Context()).Error().Err(err).Str("event", "report.read_error").Str(log.FieldDatasetID, rec.ID).Msg("could not read report")
		RespondError(w, r, http.StatusInternalServerError, ErrInternalServer)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// runRecord resolves {id} to a run record, answering 404 itself.
func (s *Server) runRecord(w http.ResponseWriter, r *http.Request) (*catalog.RunRecord, bool) {
	id := chi.URLParam(r, "id")
	run, err := s.catalog.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			RespondError(w, r, http.StatusNotFound, ErrRunNotFound)
			return nil, false
		}
		log.FromContext(r.Context()).Error().Err(err).Str("event", "catalog.error").Msg("catalog query failed")
		RespondError(w, r, http.StatusServiceUnavailable, ErrServiceUnavailable)
		return nil, false
	}
	return run, true
}

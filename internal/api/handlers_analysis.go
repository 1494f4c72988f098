// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/john-james-ai/d8analysis/internal/api/middleware"
	"github.com/john-james-ai/d8analysis/internal/cache"
	"github.com/john-james-ai/d8analysis/internal/catalog"
	"github.com/john-james-ai/d8analysis/internal/dataset"
	"github.com/john-james-ai/d8analysis/internal/describe"
	"github.com/john-james-ai/d8analysis/internal/distribution"
	"github.com/john-james-ai/d8analysis/internal/jobs"
	"github.com/john-james-ai/d8analysis/internal/log"
	"github.com/john-james-ai/d8analysis/internal/profile"
	"github.com/john-james-ai/d8analysis/internal/visual"
)

// Analysis endpoints recompute from the dataset file on every miss. The
// response cache is keyed by content fingerprint plus query parameters,
// so re-registering a changed file naturally invalidates old entries.

// SampleResponse carries a rendered excerpt of the dataset.
type SampleResponse struct {
	DatasetID string     `json:"datasetId"`
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"totalRows"`
}

// handleSample implements GET /api/v1/datasets/{id}/sample?rows=N
func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.datasetRecord(w, r)
	if !ok {
		return
	}
	rows, err := queryInt(r, "rows", 10, 1, 1000)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, ErrInvalidInput, err.Error())
		return
	}

	key := cache.Key("sample", rec.Fingerprint, strconv.Itoa(rows))
	if s.serveCached(w, key) {
		return
	}

	ds, ok := s.loadDataset(w, r, rec)
	if !ok {
		return
	}

	preview := profile.Preview(ds, rows)
	s.respondCaching(w, r, key, SampleResponse{
		DatasetID: rec.ID,
		Columns:   preview.Columns,
		Rows:      preview.Rows,
		TotalRows: ds.Len(),
	})
}

// DescribeResponse carries descriptive statistics for selected columns.
type DescribeResponse struct {
	DatasetID string           `json:"datasetId"`
	GroupBy   string           `json:"groupBy,omitempty"`
	Result    *describe.Result `json:"result"`
}

// handleDescribe implements GET /api/v1/datasets/{id}/describe.
// Query params: columns (comma-separated, empty describes all),
// group_by (categorical or boolean column partitioning the summaries).
func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.datasetRecord(w, r)
	if !ok {
		return
	}
	columns := parseColumnsParam(r.URL.Query().Get("columns"))
	groupBy := strings.TrimSpace(r.URL.Query().Get("group_by"))

	key := cache.Key("describe", rec.Fingerprint, strings.Join(columns, ","), groupBy)
	if s.serveCached(w, key) {
		return
	}

	ds, ok := s.loadDataset(w, r, rec)
	if !ok {
		return
	}

	result, err := describe.Describe(ds, describe.Options{Columns: columns, GroupBy: groupBy})
	if err != nil {
		s.respondAnalysisError(w, r, err)
		return
	}
	s.respondCaching(w, r, key, DescribeResponse{
		DatasetID: rec.ID,
		GroupBy:   groupBy,
		Result:    result,
	})
}

// FrequencyResponse carries a frequency table with its bar chart.
type FrequencyResponse struct {
	DatasetID string                  `json:"datasetId"`
	Column    string                  `json:"column"`
	Table     *dataset.FrequencyTable `json:"table"`
	Chart     *visual.ChartConfig     `json:"chart,omitempty"`
}

// handleFrequency implements GET /api/v1/datasets/{id}/frequency.
// Query params: column (required), top_k (level cap), bins (numeric
// columns), sort (count or level).
func (s *Server) handleFrequency(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.datasetRecord(w, r)
	if !ok {
		return
	}
	column := strings.TrimSpace(r.URL.Query().Get("column"))
	if column == "" {
		RespondError(w, r, http.StatusBadRequest, ErrInvalidInput, "query parameter \"column\" is required")
		return
	}
	topK, err := queryInt(r, "top_k", s.profileConfig().TopK, 1, 1000)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, ErrInvalidInput, err.Error())
		return
	}
	bins, err := queryInt(r, "bins", 0, 1, 500)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, ErrInvalidInput, err.Error())
		return
	}
	sortBy := strings.TrimSpace(r.URL.Query().Get("sort"))
	switch sortBy {
	case "", "count":
		sortBy = "count"
	case "level":
	default:
		RespondError(w, r, http.StatusBadRequest, ErrInvalidInput, "query parameter \"sort\" must be \"count\" or \"level\"")
		return
	}

	key := cache.Key("frequency", rec.Fingerprint, column, strconv.Itoa(topK), strconv.Itoa(bins), sortBy)
	if s.serveCached(w, key) {
		return
	}

	ds, ok := s.loadDataset(w, r, rec)
	if !ok {
		return
	}

	table, err := ds.Frequency(column, dataset.FrequencyOptions{
		TopK:        topK,
		Bins:        bins,
		SortByCount: sortBy == "count",
	})
	if err != nil {
		s.respondAnalysisError(w, r, err)
		return
	}
	s.respondCaching(w, r, key, FrequencyResponse{
		DatasetID: rec.ID,
		Column:    column,
		Table:     table,
		Chart:     visual.FrequencyBar(table),
	})
}

// HistogramResponse carries a histogram chart with the numeric summary of
// its column.
type HistogramResponse struct {
	DatasetID string                   `json:"datasetId"`
	Column    string                   `json:"column"`
	Summary   *describe.NumericSummary `json:"summary"`
	Chart     *visual.ChartConfig      `json:"chart"`
}

// handleHistogram implements GET /api/v1/datasets/{id}/histogram.
// Query params: column (required, numeric), bins (default Sturges rule),
// fit (distribution family, overlays the fitted PDF).
func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.datasetRecord(w, r)
	if !ok {
		return
	}
	column := strings.TrimSpace(r.URL.Query().Get("column"))
	if column == "" {
		RespondError(w, r, http.StatusBadRequest, ErrInvalidInput, "query parameter \"column\" is required")
		return
	}
	bins, err := queryInt(r, "bins", 0, 1, 500)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, ErrInvalidInput, err.Error())
		return
	}
	fit := strings.TrimSpace(r.URL.Query().Get("fit"))

	key := cache.Key("histogram", rec.Fingerprint, column, strconv.Itoa(bins), fit)
	if s.serveCached(w, key) {
		return
	}

	ds, ok := s.loadDataset(w, r, rec)
	if !ok {
		return
	}

	col, err := ds.Column(column)
	if err != nil {
		s.respondAnalysisError(w, r, err)
		return
	}

	var overlay distribution.Distribution
	if fit != "" {
		overlay, err = distribution.Fit(distribution.Name(fit), col.Floats())
		if err != nil {
			s.respondAnalysisError(w, r, err)
			return
		}
	}

	chart, err := visual.Histogram(col, bins, overlay)
	if err != nil {
		s.respondAnalysisError(w, r, err)
		return
	}

	summary := describe.NumericValues(col.Name(), col.Floats(), col.Nulls())
	s.respondCaching(w, r, key, HistogramResponse{
		DatasetID: rec.ID,
		Column:    column,
		Summary:   &summary,
		Chart:     chart,
	})
}

// CorrelationResponse carries the pairwise correlation matrix and heatmap.
// Degenerate cells serialize as null, JSON has no NaN.
type CorrelationResponse struct {
	DatasetID string              `json:"datasetId"`
	Columns   []string            `json:"columns"`
	Matrix    [][]describe.Float  `json:"matrix"`
	Chart     *visual.ChartConfig `json:"chart,omitempty"`
}

// handleCorrelation implements GET /api/v1/datasets/{id}/correlation
func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.datasetRecord(w, r)
	if !ok {
		return
	}

	key := cache.Key("correlation", rec.Fingerprint)
	if s.serveCached(w, key) {
		return
	}

	ds, ok := s.loadDataset(w, r, rec)
	if !ok {
		return
	}

	names, matrix, err := describe.CorrelationMatrix(ds)
	if err != nil {
		s.respondAnalysisError(w, r, err)
		return
	}

	cells := make([][]describe.Float, len(matrix))
	for i, row := range matrix {
		cells[i] = make([]describe.Float, len(row))
		for j, v := range row {
			cells[i][j] = describe.Float(v)
		}
	}

	resp := CorrelationResponse{DatasetID: rec.ID, Columns: names, Matrix: cells}
	if len(names) >= 2 {
		if chart, err := visual.CorrelationHeatmap(names, matrix); err == nil {
			resp.Chart = chart
		}
	}
	s.respondCaching(w, r, key, resp)
}

// loadDataset parses the file behind a record, mapping load failures onto
// API errors. Loads happen only on cache misses.
func (s *Server) loadDataset(w http.ResponseWriter, r *http.Request, rec *catalog.DatasetRecord) (*dataset.Dataset, bool) {
	ds, err := s.loader.Load(r.Context(), rec)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Warn().
				Str("event", "dataset.file_missing").
				Str(log.FieldDatasetID, rec.ID).
				Str("path", rec.Path).
				Msg("dataset file gone from disk")
			RespondError(w, r, http.StatusNotFound, ErrDatasetNotFound, "dataset file missing on disk, re-register it")
		case errors.Is(err, jobs.ErrDatasetChanged):
			RespondError(w, r, http.StatusConflict, ErrDatasetChanged, err.Error())
		case errors.Is(err, dataset.ErrEmptyInput), errors.Is(err, dataset.ErrNoRows):
			RespondError(w, r, http.StatusBadRequest, ErrDatasetEmpty)
		default:
			logger.Error().Err(err).Str("event", "dataset.load_error").Str(log.FieldDatasetID, rec.ID).Msg("could not load dataset")
			RespondError(w, r, http.StatusInternalServerError, ErrInternalServer)
		}
		return nil, false
	}

	middleware.AddSpanAttributes(r,
		attribute.String("d8a.dataset_id", rec.ID),
		attribute.Int("d8a.rows", ds.Len()),
	)
	return ds, true
}

// respondAnalysisError translates dataset, describe and distribution
// errors onto the API error catalog.
func (s *Server) respondAnalysisError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, dataset.ErrUnknownColumn):
		RespondError(w, r, http.StatusNotFound, ErrColumnNotFound, err.Error())
	case errors.Is(err, dataset.ErrKindMismatch):
		RespondError(w, r, http.StatusBadRequest, ErrColumnKindMismatch, err.Error())
	case errors.Is(err, describe.ErrGroupKind):
		RespondError(w, r, http.StatusBadRequest, ErrInvalidInput, err.Error())
	case errors.Is(err, distribution.ErrUnknownDistribution):
		RespondError(w, r, http.StatusBadRequest, ErrInvalidInput, err.Error())
	case errors.Is(err, distribution.ErrUnsupportedData),
		errors.Is(err, distribution.ErrSampleTooSmall),
		errors.Is(err, distribution.ErrNoSpread):
		RespondError(w, r, http.StatusUnprocessableEntity, ErrFitNotPossible, err.Error())
	case errors.Is(err, dataset.ErrNoRows), errors.Is(err, dataset.ErrEmptyInput):
		RespondError(w, r, http.StatusBadRequest, ErrDatasetEmpty, err.Error())
	default:
		log.FromContext(r.Context()).Error().Err(err).Str("event", "analysis.error").Msg("analysis failed")
		RespondError(w, r, http.StatusInternalServerError, ErrInternalServer)
	}
}

// serveCached writes a cached payload when one exists.
func (s *Server) serveCached(w http.ResponseWriter, key string) bool {
	payload, ok := s.cache.Get(key)
	if !ok {
		return false
	}
	w.Header().Set("X-Cache", "HIT")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
	return true
}

// respondCaching writes v as JSON and stores the payload for later hits.
func (s *Server) respondCaching(w http.ResponseWriter, r *http.Request, key string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.FromContext(r.Context()).Error().Err(err).Str("event", "analysis.encode_error").Msg("could not encode analysis response")
		RespondError(w, r, http.StatusInternalServerError, ErrInternalServer)
		return
	}

	s.mu.RLock()
	ttl := s.cfg.Cache.TTL
	s.mu.RUnlock()
	s.cache.Set(key, payload, ttl)

	w.Header().Set("X-Cache", "MISS")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// profileConfig snapshots the profiling defaults under the config lock.
func (s *Server) profileConfig() profile.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return profile.Config{
		TopK:  s.cfg.Profile.TopK,
		Bins:  s.cfg.Profile.Bins,
		Alpha: s.cfg.Profile.Alpha,
	}
}

// queryInt parses an optional integer query parameter within [min, max].
func queryInt(r *http.Request, name string, def, min, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, errors.New("query parameter \"" + name + "\" must be an integer between " +
			strconv.Itoa(min) + " and " + strconv.Itoa(max))
	}
	return n, nil
}

// parseColumnsParam splits a comma-separated column list, dropping empties.
func parseColumnsParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

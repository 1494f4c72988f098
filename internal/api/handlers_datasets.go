// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/john-james-ai/d8analysis/internal/catalog"
	"github.com/john-james-ai/d8analysis/internal/jobs"
	"github.com/john-james-ai/d8analysis/internal/log"
	platformnet "github.com/john-james-ai/d8analysis/internal/platform/net"
)

var validate = validator.New()

// ListDatasetsResponse wraps the dataset collection.
type ListDatasetsResponse struct {
	Datasets []*catalog.DatasetRecord `json:"datasets"`
	Count    int                      `json:"count"`
}

// handleListDatasets implements GET /api/v1/datasets
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	recs, err := s.catalog.ListDatasets(r.Context())
	if err != nil {
		log.FromContext(r.Context()).Error().Err(err).Str("event", "datasets.list_error").Msg("could not list datasets")
		RespondError(w, r, http.StatusServiceUnavailable, ErrServiceUnavailable)
		return
	}
	if recs == nil {
		recs = []*catalog.DatasetRecord{}
	}
	writeJSON(w, http.StatusOK, ListDatasetsResponse{Datasets: recs, Count: len(recs)})
}

// handleGetDataset implements GET /api/v1/datasets/{id}
func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.datasetRecord(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleDeleteDataset implements DELETE /api/v1/datasets/{id}
// Runs cascade in the catalog; ingested files and reports are removed
// best-effort.
func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")
	id := chi.URLParam(r, "id")

	rec, err := s.catalog.GetDataset(r.Context(), id)
	if err != nil {
		s.respondCatalogError(w, r, err, ErrDatasetNotFound)
		return
	}

	if err := s.catalog.DeleteDataset(r.Context(), id); err != nil {
		s.respondCatalogError(w, r, err, ErrDatasetNotFound)
		return
	}

	s.removeDatasetFiles(r.Context(), rec)

	logger.Info().
		Str("event", "dataset.deleted").
		Str(log.FieldDatasetID, id).
		Msg("dataset deleted")
	w.WriteHeader(http.StatusNoContent)
}

// removeDatasetFiles deletes the ingested CSV (only when it lives inside
// the data directory, operator-registered paths are left alone) and the
// report file. Failures are logged, never surfaced.
func (s *Server) removeDatasetFiles(ctx context.Context, rec *catalog.DatasetRecord) {
	logger := log.WithComponentFromContext(ctx, "api")

	s.mu.RLock()
	dataDir := s.cfg.DataDir
	reportDir := s.cfg.ReportDir
	s.mu.RUnlock()

	if dataDir != "" && rec.Path != "" {
		rel, err := filepath.Rel(dataDir, rec.Path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			if err := os.Remove(rec.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
				logger.Warn().Err(err).Str("path", rec.Path).Msg("could not remove dataset file")
			}
		}
	}

	if reportDir != "" {
		reportPath := filepath.Join(reportDir, rec.ID+".json")
		if err := os.Remove(reportPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn().Err(err).Str("path", reportPath).Msg("could not remove report file")
		}
	}
}

// handleRegisterDataset implements POST /api/v1/datasets. The body decides
// the ingestion mode: multipart/form-data uploads a CSV, application/json
// registers a remote URL.
func (s *Server) handleRegisterDataset(w http.ResponseWriter, r *http.Request) {
	contentType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		RespondError(w, r, http.StatusUnsupportedMediaType, ErrUnsupportedMediaType)
		return
	}

	switch contentType {
	case "multipart/form-data":
		s.handleUploadDataset(w, r)
	case "application/json":
		s.handleRegisterRemote(w, r)
	default:
		RespondError(w, r, http.StatusUnsupportedMediaType, ErrUnsupportedMediaType,
			fmt.Sprintf("content type %q not supported, use multipart/form-data or application/json", contentType))
	}
}

// handleUploadDataset ingests a CSV from a multipart form. Field "file"
// carries the data, field "name" optionally overrides the dataset name.
func (s *Server) handleUploadDataset(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	maxBytes := s.maxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			RespondError(w, r, http.StatusRequestEntityTooLarge, ErrPayloadTooLarge)
			return
		}
		RespondError(w, r, http.StatusBadRequest, ErrInvalidInput, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" && header != nil {
		base := filepath.Base(header.Filename)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	path, err := s.saveIngested(name, file)
	if err != nil {
		logger.Error().Err(err).Str("event", "dataset.upload_save_error").Msg("could not persist upload")
		RespondError(w, r, http.StatusInternalServerError, ErrInternalServer)
		return
	}

	s.registerIngested(w, r, path, name, "upload")
}

// RegisterRemoteRequest is the JSON body of a remote registration.
type RegisterRemoteRequest struct {
	URL  string `json:"url" validate:"required,url"`
	Name string `json:"name" validate:"omitempty,max=200"`
}

// handleRegisterRemote fetches a CSV from an allowlisted URL and registers
// it. Every URL passes the outbound policy before any connection is made.
func (s *Server) handleRegisterRemote(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	var req RegisterRemoteRequest
	if err := decodeJSONBody(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, ErrInvalidInput, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		RespondError(w, r, http.StatusBadRequest, ErrInvalidInput, err.Error())
		return
	}
	if _, ok := platformnet.ParseDirectHTTPURL(req.URL); !ok {
		RespondError(w, r, http.StatusBadRequest, ErrInvalidInput, "url must be a plain http(s) URL without credentials or fragments")
		return
	}

	s.mu.RLock()
	remote := s.cfg.Remote
	s.mu.RUnlock()

	policy := platformnet.OutboundPolicy{
		Enabled: remote.Enabled,
		Allow: platformnet.OutboundAllowlist{
			Hosts:   remote.AllowHosts,
			CIDRs:   remote.AllowCIDRs,
			Ports:   remote.AllowPorts,
			Schemes: remote.Schemes,
		},
	}

	normalized, err := platformnet.ValidateOutboundURL(r.Context(), req.URL, policy)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("event", "dataset.remote_denied").
			Str("url", platformnet.SanitizeURL(req.URL)).
			Msg("remote registration denied by outbound policy")
		RespondError(w, r, http.StatusForbidden, ErrRemoteNotAllowed, err.Error())
		return
	}

	body, err := s.fetchRemote(r.Context(), normalized, remote.MaxBytes)
	if err != nil {
		if errors.Is(err, errRemoteTooLarge) {
			RespondError(w, r, http.StatusRequestEntityTooLarge, ErrPayloadTooLarge)
			return
		}
		logger.Warn().
			Err(err).
			Str("event", "dataset.remote_fetch_error").
			Str("url", platformnet.SanitizeURL(normalized)).
			Msg("remote fetch failed")
		RespondError(w, r, http.StatusBadGateway, ErrRemoteFetchFailed, err.Error())
		return
	}
	defer body.Close()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = remoteBaseName(normalized)
	}

	path, err := s.saveIngested(name, body)
	if err != nil {
		if errors.Is(err, errRemoteTooLarge) {
			RespondError(w, r, http.StatusRequestEntityTooLarge, ErrPayloadTooLarge)
			return
		}
		logger.Error().Err(err).Str("event", "dataset.remote_save_error").Msg("could not persist remote dataset")
		RespondError(w, r, http.StatusInternalServerError, ErrInternalServer)
		return
	}

	s.registerIngested(w, r, path, name, "remote")
}

// errRemoteTooLarge marks a remote body that exceeded the configured cap.
var errRemoteTooLarge = errors.New("remote dataset exceeds size limit")

// limitedBody enforces the remote size cap while streaming to disk.
type limitedBody struct {
	r         io.Reader
	closer    io.Closer
	remaining int64
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	b.remaining -= int64(n)
	if b.remaining < 0 {
		return n, errRemoteTooLarge
	}
	return n, err
}

func (b *limitedBody) Close() error { return b.closer.Close() }

// fetchRemote GETs the validated URL. Client.Timeout covers the body read
// too, so a stalling remote cannot hold the handler open indefinitely. The
// transport is traced, remote ingestion shows up in spans.
func (s *Server) fetchRemote(ctx context.Context, url string, maxBytes int64) (io.ReadCloser, error) {
	s.mu.RLock()
	timeout := s.cfg.Remote.Timeout
	s.mu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv, */*")

	client := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("remote returned status %d", resp.StatusCode)
	}
	if maxBytes > 0 && resp.ContentLength > maxBytes {
		_ = resp.Body.Close()
		return nil, errRemoteTooLarge
	}
	if maxBytes > 0 {
		return &limitedBody{r: resp.Body, closer: resp.Body, remaining: maxBytes}, nil
	}
	return resp.Body, nil
}

// saveIngested streams the payload into the data directory under a safe,
// unique filename. The write is atomic, partial downloads never become
// visible files.
func (s *Server) saveIngested(name string, src io.Reader) (string, error) {
	s.mu.RLock()
	dataDir := s.cfg.DataDir
	s.mu.RUnlock()

	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}

	filename := jobs.SafeDatasetFilename(name, uuid.NewString())
	path := filepath.Join(dataDir, filename)

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return "", fmt.Errorf("create pending dataset file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := io.Copy(pending, src); err != nil {
		return "", err
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("persist dataset file: %w", err)
	}
	return path, nil
}

// registerIngested parses and catalogs a freshly saved file, answering
// 201 with the record. The file is removed again when parsing fails.
func (s *Server) registerIngested(w http.ResponseWriter, r *http.Request, path, name, source string) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	rec, err := jobs.RegisterFile(r.Context(), s.catalog, path, jobs.RegisterOptions{
		Name:   name,
		Source: source,
	})
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.Warn().Err(rmErr).Str("path", path).Msg("could not remove rejected dataset file")
		}
		logger.Warn().
			Err(err).
			Str("event", "dataset.register_rejected").
			Str("source", source).
			Msg("dataset registration failed")
		RespondError(w, r, http.StatusBadRequest, ErrInvalidInput, err.Error())
		return
	}

	w.Header().Set("Location", "/api/v1/datasets/"+rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

// remoteBaseName derives a dataset name from a URL path.
func remoteBaseName(rawURL string) string {
	trimmed := strings.TrimSuffix(rawURL, "/")
	base := trimmed[strings.LastIndex(trimmed, "/")+1:]
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		return "remote-dataset"
	}
	return base
}

// datasetRecord resolves {id} to a catalog record, answering 404 itself.
func (s *Server) datasetRecord(w http.ResponseWriter, r *http.Request) (*catalog.DatasetRecord, bool) {
	id := chi.URLParam(r, "id")
	rec, err := s.catalog.GetDataset(r.Context(), id)
	if err != nil {
		s.respondCatalogError(w, r, err, ErrDatasetNotFound)
		return nil, false
	}
	return rec, true
}

// respondCatalogError maps catalog errors onto API errors.
func (s *Server) respondCatalogError(w http.ResponseWriter, r *http.Request, err error, notFound *APIError) {
	if errors.Is(err, catalog.ErrNotFound) {
		RespondError(w, r, http.StatusNotFound, notFound)
		return
	}
	log.FromContext(r.Context()).Error().Err(err).Str("event", "catalog.error").Msg("catalog query failed")
	RespondError(w, r, http.StatusServiceUnavailable, ErrServiceUnavailable)
}

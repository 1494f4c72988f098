// SPDX-License-Identifier: MIT

//go:build integration || integration_fast
// +build integration integration_fast

// Package contract verifies the HTTP surface against api/openapi.yaml.
// Every documented operation must be mounted, the auth posture must match
// the security scheme, and representative responses must validate against
// their schemas. The server under test is wired with the real pipeline:
// sqlite catalog, run scheduler and result store, no stubs.
package contract

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john-james-ai/d8analysis/internal/api"
	"github.com/john-james-ai/d8analysis/internal/cache"
	"github.com/john-james-ai/d8analysis/internal/catalog"
	"github.com/john-james-ai/d8analysis/internal/config"
	"github.com/john-james-ai/d8analysis/internal/jobs"
	"github.com/john-james-ai/d8analysis/internal/profile"
	"github.com/john-james-ai/d8analysis/internal/resultstore"
)

const (
	specPath      = "../../api/openapi.yaml"
	specServerURL = "http://localhost:8080"
	contractToken = "contract-test-token"
)

const contractCSV = `age,income,city,active
34,52000,berlin,true
29,48000,hamburg,false
41,61000,berlin,true
37,55500,munich,true
25,39000,hamburg,false
52,72000,berlin,false
`

var (
	openapiOnce sync.Once
	openapiDoc  *openapi3.T
	openapiErr  error
)

func loadOpenAPIDoc(t *testing.T) *openapi3.T {
	t.Helper()
	openapiOnce.Do(func() {
		loader := openapi3.NewLoader()
		loader.IsExternalRefsAllowed = true
		doc, err := loader.LoadFromFile(specPath)
		if err != nil {
			openapiErr = err
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			openapiErr = err
			return
		}
		openapiDoc = doc
	})
	if openapiErr != nil {
		t.Fatalf("openapi load failed: %v", openapiErr)
	}
	return openapiDoc
}

// contractServer is a fully wired service instance with one profiled
// dataset, a finished run and a second dataset reserved for DELETE.
type contractServer struct {
	handler     http.Handler
	datasetID   string
	deletableID string
	runID       string
}

// newContractServer builds the production wiring on temp storage and
// profiles the seeded dataset to completion, so report and run routes
// have real payloads to serve. mutate adjusts the config before the
// server is constructed.
func newContractServer(t *testing.T, mutate func(cfg *config.AppConfig)) *contractServer {
	t.Helper()

	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	reportDir := filepath.Join(dir, "reports")
	require.NoError(t, os.MkdirAll(dataDir, 0o750))
	require.NoError(t, os.MkdirAll(reportDir, 0o750))

	cat, err := catalog.Open(filepath.Join(dir, "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })

	results := resultstore.NewMemoryStore()
	loader := &jobs.FileLoader{}

	seed := func(name string) *catalog.DatasetRecord {
		path := filepath.Join(dataDir, name+".csv")
		require.NoError(t, os.WriteFile(path, []byte(contractCSV), 0o600))
		rec, err := jobs.RegisterFile(context.Background(), cat, path, jobs.RegisterOptions{Name: name})
		require.NoError(t, err)
		return rec
	}
	primary := seed("people")
	deletable := seed("people-copy")

	runner := jobs.NewRunner(context.Background(), jobs.Config{
		Profile: profile.Config{
			ReportDir:    reportDir,
			TopK:         5,
			Bins:         5,
			Alpha:        0.05,
			BestFit:      true,
			Correlations: true,
			SampleRows:   3,
		},
		MaxConcurrency: 1,
		ResultTTL:      time.Minute,
	}, cat, results, loader)
	t.Cleanup(runner.Wait)

	runID, err := runner.TriggerProfile(context.Background(), primary.ID)
	require.NoError(t, err)
	runner.Wait()

	run, err := cat.GetRun(context.Background(), runID)
	require.NoError(t, err)
	require.Equal(t, catalog.RunStatusSuccess, run.Status, "seed profile run must succeed: %s", run.Error)

	cfg := config.AppConfig{
		Version:   "contract-test",
		DataDir:   dataDir,
		ReportDir: reportDir,
		APIToken:  contractToken,
		Cache:     config.CacheConfig{TTL: time.Minute},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	srv, err := api.New(cfg, api.Deps{
		Catalog: cat,
		Results: results,
		Cache:   cache.NewMemoryCache(0),
		Loader:  loader,
		Trigger: runner,
	})
	require.NoError(t, err)

	return &contractServer{
		handler:     srv.Router(),
		datasetID:   primary.ID,
		deletableID: deletable.ID,
		runID:       runID,
	}
}

func (s *contractServer) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+contractToken)
	return req
}

// TestOpenAPIDocument pins the structural invariants of the document
// itself: unique operation ids and at least one success response per
// operation, so generated clients stay usable.
func TestOpenAPIDocument(t *testing.T) {
	doc := loadOpenAPIDoc(t)

	seen := map[string]string{}
	forEachOperation(t, doc, func(method, path string, op *openapi3.Operation, _ []*openapi3.Parameter) {
		require.NotEmpty(t, op.OperationID, "missing operationId: %s %s", method, path)
		if prev, dup := seen[op.OperationID]; dup {
			t.Fatalf("duplicate operationId %q: %s and %s %s", op.OperationID, prev, method, path)
		}
		seen[op.OperationID] = method + " " + path

		success := false
		for code := range op.Responses.Map() {
			if strings.HasPrefix(code, "2") {
				success = true
				break
			}
		}
		require.True(t, success, "no 2xx response documented: %s %s", method, path)
	})
}

// TestRouteParity sends every documented operation through the real
// router. A problem+json ROUTE_NOT_FOUND or a 405 means the route is
// missing from the router; domain-level 404s (unknown column, deleted
// dataset) are legitimate handler answers and pass.
func TestRouteParity(t *testing.T) {
	doc := loadOpenAPIDoc(t)
	srv := newContractServer(t, nil)

	forEachOperation(t, doc, func(method, path string, op *openapi3.Operation, params []*openapi3.Parameter) {
		req := authed(srv.buildRequest(t, method, path, params))
		rr := srv.do(req)

		if rr.Code == http.StatusMethodNotAllowed {
			t.Fatalf("route not mounted: %s %s -> %d", method, path, rr.Code)
		}
		if rr.Code == http.StatusNotFound {
			var problem struct {
				Code string `json:"code"`
			}
			_ = json.Unmarshal(rr.Body.Bytes(), &problem)
			if problem.Code == "ROUTE_NOT_FOUND" {
				t.Fatalf("route not mounted: %s %s -> %d %s", method, path, rr.Code, rr.Body.String())
			}
		}
	})
}

// TestAuthParity checks the token postures against the security scheme:
// no token fails closed, a wrong token is rejected, anonymous mode
// grants read but never write, probes stay open.
func TestAuthParity(t *testing.T) {
	doc := loadOpenAPIDoc(t)

	t.Run("no token is 401 on every secured operation", func(t *testing.T) {
		srv := newContractServer(t, nil)
		forEachOperation(t, doc, func(method, path string, op *openapi3.Operation, params []*openapi3.Parameter) {
			if op.Security != nil && len(*op.Security) == 0 {
				return // probes opt out via security: []
			}
			req := srv.buildRequest(t, method, path, params)
			rr := srv.do(req)
			require.Equal(t, http.StatusUnauthorized, rr.Code,
				"expected 401 without token: %s %s -> %d", method, path, rr.Code)
		})
	})

	t.Run("wrong token is 401", func(t *testing.T) {
		srv := newContractServer(t, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
		req.Header.Set("Authorization", "Bearer not-the-token")
		rr := srv.do(req)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("anonymous mode is read-only", func(t *testing.T) {
		srv := newContractServer(t, func(cfg *config.AppConfig) {
			cfg.APIToken = ""
			cfg.AuthAnonymous = true
		})

		rr := srv.do(httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
		assert.Equal(t, http.StatusOK, rr.Code, "anonymous read must pass")

		rr = srv.do(httptest.NewRequest(http.MethodPost, "/api/v1/datasets/"+srv.datasetID+"/profile", nil))
		assert.Equal(t, http.StatusForbidden, rr.Code, "anonymous write must be denied")
	})

	t.Run("probes stay outside auth", func(t *testing.T) {
		srv := newContractServer(t, nil)
		rr := srv.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	})
}

// TestResponseSchemas validates live responses against the documented
// schemas, status codes and headers.
func TestResponseSchemas(t *testing.T) {
	doc := loadOpenAPIDoc(t)
	srv := newContractServer(t, nil)

	cases := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"health", http.MethodGet, "/healthz", http.StatusOK},
		{"readiness", http.MethodGet, "/readyz", http.StatusOK},
		{"status", http.MethodGet, "/api/v1/status", http.StatusOK},
		{"version", http.MethodGet, "/api/v1/version", http.StatusOK},
		{"list datasets", http.MethodGet, "/api/v1/datasets", http.StatusOK},
		{"get dataset", http.MethodGet, "/api/v1/datasets/" + srv.datasetID, http.StatusOK},
		{"sample", http.MethodGet, "/api/v1/datasets/" + srv.datasetID + "/sample?rows=3", http.StatusOK},
		{"describe", http.MethodGet, "/api/v1/datasets/" + srv.datasetID + "/describe", http.StatusOK},
		{"describe grouped", http.MethodGet, "/api/v1/datasets/" + srv.datasetID + "/describe?columns=age,income&group_by=city", http.StatusOK},
		{"frequency", http.MethodGet, "/api/v1/datasets/" + srv.datasetID + "/frequency?column=city", http.StatusOK},
		{"histogram", http.MethodGet, "/api/v1/datasets/" + srv.datasetID + "/histogram?column=age&bins=4", http.StatusOK},
		{"correlation", http.MethodGet, "/api/v1/datasets/" + srv.datasetID + "/correlation", http.StatusOK},
		{"dataset report", http.MethodGet, "/api/v1/datasets/" + srv.datasetID + "/report", http.StatusOK},
		{"list runs", http.MethodGet, "/api/v1/datasets/" + srv.datasetID + "/runs", http.StatusOK},
		{"get run", http.MethodGet, "/api/v1/runs/" + srv.runID, http.StatusOK},
		{"run report", http.MethodGet, "/api/v1/runs/" + srv.runID + "/report", http.StatusOK},
		{"unknown dataset", http.MethodGet, "/api/v1/datasets/no-such-id", http.StatusNotFound},
		{"unknown column", http.MethodGet, "/api/v1/datasets/" + srv.datasetID + "/frequency?column=ghost", http.StatusNotFound},
		{"unauthorized", http.MethodGet, "/api/v1/status", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, specServerURL+tc.path, nil)
			if tc.wantStatus != http.StatusUnauthorized {
				authed(req)
			}
			rr := srv.do(req)
			require.Equal(t, tc.wantStatus, rr.Code, "body: %s", rr.Body.String())
			validateOpenAPIResponse(t, doc, req, rr)
		})
	}
}

// TestUploadAndTrigger walks the write surface end to end: multipart
// upload, profile trigger, delete. Each response is checked against the
// document.
func TestUploadAndTrigger(t *testing.T) {
	doc := loadOpenAPIDoc(t)
	srv := newContractServer(t, nil)

	var uploadedID string

	t.Run("upload CSV", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "upload.csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(contractCSV))
		require.NoError(t, err)
		require.NoError(t, mw.WriteField("name", "uploaded"))
		require.NoError(t, mw.Close())

		req := authed(httptest.NewRequest(http.MethodPost, specServerURL+"/api/v1/datasets", &buf))
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rr := srv.do(req)

		require.Equal(t, http.StatusCreated, rr.Code, "body: %s", rr.Body.String())
		assert.NotEmpty(t, rr.Header().Get("Location"))
		validateOpenAPIResponse(t, doc, req, rr)

		var rec catalog.DatasetRecord
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
		require.NotEmpty(t, rec.ID)
		assert.Equal(t, "uploaded", rec.Name)
		assert.Equal(t, 6, rec.Rows)
		uploadedID = rec.ID
	})

	t.Run("trigger profile", func(t *testing.T) {
		req := authed(httptest.NewRequest(http.MethodPost, specServerURL+"/api/v1/datasets/"+uploadedID+"/profile", nil))
		rr := srv.do(req)

		require.Equal(t, http.StatusAccepted, rr.Code, "body: %s", rr.Body.String())
		assert.NotEmpty(t, rr.Header().Get("Location"))
		validateOpenAPIResponse(t, doc, req, rr)
	})

	t.Run("delete dataset", func(t *testing.T) {
		req := authed(httptest.NewRequest(http.MethodDelete, specServerURL+"/api/v1/datasets/"+srv.deletableID, nil))
		rr := srv.do(req)

		require.Equal(t, http.StatusNoContent, rr.Code)
		validateOpenAPIResponse(t, doc, req, rr)

		req = authed(httptest.NewRequest(http.MethodGet, specServerURL+"/api/v1/datasets/"+srv.deletableID, nil))
		rr = srv.do(req)
		require.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func forEachOperation(t *testing.T, doc *openapi3.T, fn func(method, path string, op *openapi3.Operation, params []*openapi3.Parameter)) {
	t.Helper()
	for path, pathItem := range doc.Paths.Map() {
		if pathItem == nil {
			continue
		}
		for method, op := range pathItem.Operations() {
			if op == nil || op.OperationID == "" {
				continue
			}
			fn(method, path, op, collectParams(pathItem, op))
		}
	}
}

func collectParams(pathItem *openapi3.PathItem, op *openapi3.Operation) []*openapi3.Parameter {
	params := make([]*openapi3.Parameter, 0)
	for _, ref := range pathItem.Parameters {
		if ref != nil && ref.Value != nil {
			params = append(params, ref.Value)
		}
	}
	for _, ref := range op.Parameters {
		if ref != nil && ref.Value != nil {
			params = append(params, ref.Value)
		}
	}
	return params
}

var pathParamRe = regexp.MustCompile(`\{([^}]+)\}`)

// buildRequest resolves path parameters to seeded ids and fills required
// query parameters with values matching the seeded dataset.
func (s *contractServer) buildRequest(t *testing.T, method, path string, params []*openapi3.Parameter) *http.Request {
	t.Helper()

	resolved := pathParamRe.ReplaceAllStringFunc(path, func(string) string {
		return s.pathValue(method, path)
	})

	u, err := url.Parse(resolved)
	require.NoError(t, err)

	q := u.Query()
	for _, p := range params {
		if p.In != "query" || !p.Required {
			continue
		}
		q.Set(p.Name, s.queryValue(p.Name, path))
	}
	u.RawQuery = q.Encode()

	req := httptest.NewRequest(method, u.String(), nil)
	req.RemoteAddr = "127.0.0.1:1234"
	return req
}

// pathValue maps the {id} parameter onto the right seeded resource.
// DELETE gets its own dataset so iteration order never starves the
// read operations.
func (s *contractServer) pathValue(method, path string) string {
	if strings.HasPrefix(path, "/api/v1/runs") {
		return s.runID
	}
	if method == http.MethodDelete {
		return s.deletableID
	}
	return s.datasetID
}

// queryValue answers required query parameters with columns that exist
// in the seeded CSV.
func (s *contractServer) queryValue(name, path string) string {
	if name == "column" {
		if strings.Contains(path, "histogram") {
			return "age"
		}
		return "city"
	}
	return "x"
}

func validateOpenAPIResponse(t *testing.T, doc *openapi3.T, req *http.Request, rr *httptest.ResponseRecorder) {
	t.Helper()
	router, err := legacy.NewRouter(doc)
	require.NoError(t, err, "openapi router init")

	route, pathParams, err := router.FindRoute(req)
	require.NoError(t, err, "openapi route lookup: %s %s", req.Method, req.URL.Path)

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status: rr.Code,
		Header: rr.Header(),
	}
	input.SetBodyBytes(rr.Body.Bytes())

	require.NoError(t, openapi3filter.ValidateResponse(context.Background(), input), "openapi response validation")
}

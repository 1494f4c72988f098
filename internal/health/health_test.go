// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	m := NewManager("v1.2.3")
	assert.NotNil(t, m)
	assert.Equal(t, "v1.2.3", m.version)
	assert.Empty(t, m.checkers)
}

func TestManagerHealth(t *testing.T) {
	t.Run("no checkers", func(t *testing.T) {
		m := NewManager("v1.0.0")

		resp := m.Health(context.Background(), false)
		assert.Equal(t, StatusHealthy, resp.Status)
		assert.Equal(t, "v1.0.0", resp.Version)
		assert.GreaterOrEqual(t, resp.Uptime, int64(0))
		assert.Nil(t, resp.Checks)
	})

	t.Run("verbose includes per-check results", func(t *testing.T) {
		m := NewManager("v1.0.0")
		m.RegisterChecker(&mockChecker{name: "healthy", status: StatusHealthy})
		m.RegisterChecker(&mockChecker{name: "degraded", status: StatusDegraded})

		// Non-verbose responses stay cheap: overall status only, and the
		// checkers are not even run.
		resp := m.Health(context.Background(), false)
		assert.Equal(t, StatusHealthy, resp.Status)
		assert.Nil(t, resp.Checks)

		resp = m.Health(context.Background(), true)
		assert.Equal(t, StatusDegraded, resp.Status)
		assert.Len(t, resp.Checks, 2)
		assert.Equal(t, StatusHealthy, resp.Checks["healthy"].Status)
		assert.Equal(t, StatusDegraded, resp.Checks["degraded"].Status)
	})

	t.Run("worst status wins", func(t *testing.T) {
		m := NewManager("v1.0.0")
		m.RegisterChecker(&mockChecker{name: "ok", status: StatusHealthy})
		m.RegisterChecker(&mockChecker{name: "slow", status: StatusDegraded})
		m.RegisterChecker(&mockChecker{name: "broken", status: StatusUnhealthy})

		resp := m.Health(context.Background(), true)
		assert.Equal(t, StatusUnhealthy, resp.Status)
		assert.Len(t, resp.Checks, 3)
	})
}

func TestManagerHealthUptime(t *testing.T) {
	m := NewManager("v1.0.0")

	resp1 := m.Health(context.Background(), false)
	assert.GreaterOrEqual(t, resp1.Uptime, int64(0))

	// Uptime is whole seconds, so crossing a one-second boundary is the
	// smallest observable increase.
	time.Sleep(1100 * time.Millisecond)
	resp2 := m.Health(context.Background(), false)
	assert.GreaterOrEqual(t, resp2.Uptime, int64(1))
	assert.Greater(t, resp2.Uptime, resp1.Uptime)
}

func TestManagerReady(t *testing.T) {
	tests := []struct {
		name       string
		checkers   []Checker
		wantReady  bool
		wantStatus Status
	}{
		{
			name:       "no checkers",
			wantReady:  true,
			wantStatus: StatusHealthy,
		},
		{
			name: "all healthy",
			checkers: []Checker{
				&mockChecker{name: "check1", status: StatusHealthy},
				&mockChecker{name: "check2", status: StatusHealthy},
			},
			wantReady:  true,
			wantStatus: StatusHealthy,
		},
		{
			// Degraded keeps the instance in rotation.
			name:       "degraded is still ready",
			checkers:   []Checker{&mockChecker{name: "degraded", status: StatusDegraded}},
			wantReady:  true,
			wantStatus: StatusDegraded,
		},
		{
			name:       "unhealthy is not ready",
			checkers:   []Checker{&mockChecker{name: "unhealthy", status: StatusUnhealthy}},
			wantReady:  false,
			wantStatus: StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("v1.0.0")
			for _, c := range tt.checkers {
				m.RegisterChecker(c)
			}

			resp := m.Ready(context.Background(), false)
			assert.Equal(t, tt.wantReady, resp.Ready)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Len(t, resp.Checks, len(tt.checkers))
		})
	}
}

func TestManagerServeHealth(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "test", status: StatusHealthy})

	t.Run("plain", func(t *testing.T) {
		w := httptest.NewRecorder()
		m.ServeHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var resp HealthResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, StatusHealthy, resp.Status)
		assert.GreaterOrEqual(t, resp.Uptime, int64(0))
		assert.Nil(t, resp.Checks)
	})

	t.Run("verbose", func(t *testing.T) {
		w := httptest.NewRecorder()
		m.ServeHealth(w, httptest.NewRequest(http.MethodGet, "/healthz?verbose=true", nil))

		assert.Equal(t, http.StatusOK, w.Code)

		var resp HealthResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Len(t, resp.Checks, 1)
	})
}

func TestManagerServeReady(t *testing.T) {
	tests := []struct {
		name      string
		checker   Checker
		wantCode  int
		wantReady bool
	}{
		{
			name:      "healthy",
			checker:   &mockChecker{name: "test", status: StatusHealthy},
			wantCode:  http.StatusOK,
			wantReady: true,
		},
		{
			name:      "degraded",
			checker:   &mockChecker{name: "test", status: StatusDegraded},
			wantCode:  http.StatusOK,
			wantReady: true,
		},
		{
			name:      "unhealthy",
			checker:   &mockChecker{name: "test", status: StatusUnhealthy},
			wantCode:  http.StatusServiceUnavailable,
			wantReady: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("v1.0.0")
			m.RegisterChecker(tt.checker)

			w := httptest.NewRecorder()
			m.ServeReady(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantCode, w.Code)

			var resp ReadinessResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.wantReady, resp.Ready)
		})
	}
}

func TestServeEndpointsSurviveWriteFailure(t *testing.T) {
	m := NewManager("v1.0.0")

	// Neither endpoint may panic when the client connection is gone.
	m.ServeHealth(&brokenWriter{header: make(http.Header)}, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	m.ServeReady(&brokenWriter{header: make(http.Header)}, httptest.NewRequest(http.MethodGet, "/readyz", nil))
}

func TestDirChecker_Name(t *testing.T) {
	checker := NewDirChecker("data-dir", "/var/lib/d8analysis")
	assert.Equal(t, "data-dir", checker.Name())
}

func TestDirChecker(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name           string
		setup          func() string
		expectedStatus Status
		expectedError  string
	}{
		{
			name: "directory exists",
			setup: func() string {
				return tempDir
			},
			expectedStatus: StatusHealthy,
		},
		{
			name: "directory not found",
			setup: func() string {
				return filepath.Join(tempDir, "nonexistent")
			},
			expectedStatus: StatusUnhealthy,
			expectedError:  "directory not found",
		},
		{
			name: "is file",
			setup: func() string {
				path := filepath.Join(tempDir, "file.txt")
				require.NoError(t, os.WriteFile(path, []byte("content"), 0600))
				return path
			},
			expectedStatus: StatusUnhealthy,
			expectedError:  "expected directory, got file",
		},
		{
			name: "not configured",
			setup: func() string {
				return ""
			},
			expectedStatus: StatusHealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup()
			checker := NewDirChecker("test", path)

			result := checker.Check(context.Background())
			assert.Equal(t, tt.expectedStatus, result.Status)
			if tt.expectedError != "" {
				assert.Contains(t, result.Error, tt.expectedError)
			}
		})
	}
}

func TestCatalogChecker(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		checker := NewCatalogChecker(&stubPinger{})
		result := checker.Check(context.Background())
		assert.Equal(t, StatusHealthy, result.Status)
		assert.Equal(t, "catalog reachable", result.Message)
	})

	t.Run("unreachable", func(t *testing.T) {
		checker := NewCatalogChecker(&stubPinger{err: errors.New("database is locked")})
		result := checker.Check(context.Background())
		assert.Equal(t, StatusUnhealthy, result.Status)
		assert.Contains(t, result.Error, "database is locked")
	})

	t.Run("not configured", func(t *testing.T) {
		checker := NewCatalogChecker(nil)
		result := checker.Check(context.Background())
		assert.Equal(t, StatusHealthy, result.Status)
	})

	assert.Equal(t, "catalog", NewCatalogChecker(nil).Name())
}

func TestLastRunChecker_Name(t *testing.T) {
	checker := NewLastRunChecker(func() (time.Time, string) {
		return time.Now(), ""
	})
	assert.Equal(t, "last_profile_run", checker.Name())
}

func TestLastRunChecker(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name           string
		lastRun        time.Time
		lastError      string
		expectedStatus Status
		expectedMsg    string
	}{
		{
			name:           "no runs yet",
			lastRun:        time.Time{},
			lastError:      "",
			expectedStatus: StatusHealthy,
			expectedMsg:    "no profile runs yet",
		},
		{
			name:           "last run failed",
			lastRun:        now,
			lastError:      "column price: no parsable values",
			expectedStatus: StatusDegraded,
			expectedMsg:    "last profile run failed",
		},
		{
			name:           "recent success",
			lastRun:        now.Add(-1 * time.Hour),
			lastError:      "",
			expectedStatus: StatusHealthy,
			expectedMsg:    "last profile run successful",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewLastRunChecker(func() (time.Time, string) {
				return tt.lastRun, tt.lastError
			})

			result := checker.Check(context.Background())
			assert.Equal(t, tt.expectedStatus, result.Status)
			assert.Contains(t, result.Message, tt.expectedMsg)
		})
	}
}

// Mock checker for testing
type mockChecker struct {
	name    string
	status  Status
	message string
	err     string
}

func (m *mockChecker) Name() string {
	return m.name
}

func (m *mockChecker) Check(_ context.Context) CheckResult {
	return CheckResult{
		Status:  m.status,
		Message: m.message,
		Error:   m.err,
	}
}

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(_ context.Context) error {
	return p.err
}

// brokenWriter is a mock ResponseWriter that always fails to write
type brokenWriter struct {
	header http.Header
}

func (w *brokenWriter) Header() http.Header {
	return w.header
}

func (w *brokenWriter) Write([]byte) (int, error) {
	return 0, assert.AnError // Always fail
}

func (w *brokenWriter) WriteHeader(statusCode int) {
	// No-op
}

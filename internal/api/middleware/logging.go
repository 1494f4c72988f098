// SPDX-License-Identifier: MIT

package middleware

import (
	"bufio"
	"net"
	"net/http"
	"time"

	"github.com/john-james-ai/d8analysis/internal/log"
)

// Logging emits one structured log line per request after the handler
// finishes, carrying status, latency and response size. The request id
// is attached by the logger context, trace ids are added when a span
// is active.
func Logging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lw := &loggingWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(lw, r)

			logger := log.WithComponentFromContext(r.Context(), "http")
			evt := logger.Info()
			if lw.status >= http.StatusInternalServerError {
				evt = logger.Error()
			} else if lw.status >= http.StatusBadRequest {
				evt = logger.Warn()
			}

			evt = evt.
				Str("event", "http.request").
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", lw.status).
				Int64("bytes", lw.bytes).
				Dur("duration_ms", time.Since(start)).
				Str("remote", remoteHost(r.RemoteAddr))

			if traceID, spanID := ExtractTraceContext(r); traceID != "" {
				evt = evt.Str("trace_id", traceID).Str("span_id", spanID)
			}
			if ua := r.UserAgent(); ua != "" {
				evt = evt.Str("user_agent", ua)
			}

			evt.Msg("request completed")
		})
	}
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// loggingWriter captures status and byte count for the request log.
type loggingWriter struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func (lw *loggingWriter) WriteHeader(status int) {
	if !lw.wroteHeader {
		lw.status = status
		lw.wroteHeader = true
	}
	lw.ResponseWriter.WriteHeader(status)
}

func (lw *loggingWriter) Write(b []byte) (int, error) {
	if !lw.wroteHeader {
		lw.wroteHeader = true
	}
	n, err := lw.ResponseWriter.Write(b)
	lw.bytes += int64(n)
	return n, err
}

func (lw *loggingWriter) Flush() {
	if f, ok := lw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (lw *loggingWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := lw.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

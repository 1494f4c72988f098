// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/john-james-ai/d8analysis/internal/log"
)

// Recoverer converts handler panics into 500 responses instead of
// killing the connection. The stack trace goes to the log, never to
// the client.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					// The handler aborted the connection on purpose.
					panic(rec)
				}

				logger := log.WithComponentFromContext(r.Context(), "http")
				logger.Error().
					Str("event", "http.panic").
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("handler panicked")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal_server_error"}`))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

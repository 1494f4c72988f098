// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
)

const (
	corsMethods = "GET, POST, OPTIONS, DELETE"
	corsHeaders = "Content-Type, X-Request-Id, X-API-Token, Authorization"
)

// Local dashboards and Jupyter, for when no explicit origin list is
// configured.
var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://localhost:8080",
	"http://localhost:8888",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:8888",
}

// CORS returns a middleware enforcing a strict allowed-origins list.
// An empty list falls back to the development origins; "*" in the list
// allows every origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := allowedOrigins
	if len(origins) == 0 {
		origins = devOrigins
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	_, allowAll := allowed["*"]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()

			// A missing Origin header means a non-browser client (curl,
			// backend-to-backend), which the same-origin policy never
			// restricts. Browser origins get the allow header only when
			// listed; silence makes the browser block the response.
			switch origin := r.Header.Get("Origin"); {
			case origin == "":
				h.Set("Access-Control-Allow-Origin", "*")
			case allowAll:
				h.Set("Access-Control-Allow-Origin", origin)
			default:
				if _, ok := allowed[origin]; ok {
					h.Set("Access-Control-Allow-Origin", origin)
				}
			}

			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", corsHeaders)
			h.Set("Access-Control-Max-Age", "600")
			h.Set("Vary", "Origin, Access-Control-Request-Method, Access-Control-Request-Headers")

			if r.Method == http.MethodOptions {
				h.Set("Allow", corsMethods)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

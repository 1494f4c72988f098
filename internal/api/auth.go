// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"net/http"

	"github.com/john-james-ai/d8analysis/internal/auth"
	"github.com/john-james-ai/d8analysis/internal/log"
)

// ctxPrincipalKey stores the authenticated principal in the request context.
type ctxPrincipalKey struct{}

// principalFromContext returns the request principal, or nil when the
// request never passed the auth middleware.
func principalFromContext(ctx context.Context) *auth.Principal {
	p, _ := ctx.Value(ctxPrincipalKey{}).(*auth.Principal)
	return p
}

// authMiddleware enforces API token authentication.
//
// Posture:
//   - Token configured: valid token gets read+write, anything else is 401.
//   - No token, anonymous enabled: read-only principal.
//   - No token, anonymous disabled: fail closed, every request is 401.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		token := s.cfg.APIToken
		authAnon := s.cfg.AuthAnonymous
		s.mu.RUnlock()

		if token == "" {
			if authAnon {
				// Auth explicitly disabled: anonymous principal, read scope only.
				ctx := context.WithValue(r.Context(), ctxPrincipalKey{}, auth.Anonymous())
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			// Fail-closed (default)
			log.FromContext(r.Context()).Error().
				Str("event", "auth.fail_closed").
				Msg("D8A_API_TOKEN not set and D8A_AUTH_ANONYMOUS!=true, denying access")
			RespondError(w, r, http.StatusUnauthorized, ErrUnauthorized)
			return
		}

		reqToken := auth.ExtractToken(r)

		logger := log.FromContext(r.Context()).With().Str("component", "auth").Logger()

		if reqToken == "" {
			logger.Warn().
				Str("event", "auth.missing_header").
				Str("remote", clientIP(r)).
				Msg("authorization header missing")
			RespondError(w, r, http.StatusUnauthorized, ErrUnauthorized)
			return
		}

		// Constant-time comparison prevents timing attacks.
		if !auth.AuthorizeToken(reqToken, token) {
			logger.Warn().
				Str("event", "auth.invalid_token").
				Str("remote", clientIP(r)).
				Msg("invalid api token")
			RespondError(w, r, http.StatusUnauthorized, ErrUnauthorized)
			return
		}

		principal := auth.NewPrincipal(reqToken, "", []string{auth.ScopeRead, auth.ScopeWrite})
		ctx := context.WithValue(r.Context(), ctxPrincipalKey{}, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireScope gates a route on a principal scope. It runs after
// authMiddleware, so a missing principal is a wiring bug and is denied.
func (s *Server) requireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := principalFromContext(r.Context())
			if !principal.HasScope(scope) {
				log.FromContext(r.Context()).Warn().
					Str("event", "auth.scope_denied").
					Str("scope", scope).
					Str("remote", clientIP(r)).
					Msg("principal lacks required scope")
				RespondError(w, r, http.StatusForbidden, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

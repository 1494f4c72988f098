// SPDX-License-Identifier: MIT

package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// Scopes understood by the API layer.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
)

// Principal represents the authenticated identity of a caller.
type Principal struct {
	// ID is the stable, unique identifier for the caller.
	// It is either the explicit User from config or a hash of the token.
	ID string

	// Scopes are the permissions granted to this principal.
	Scopes []string

	// User is the human-readable username if configured.
	User string
}

// NewPrincipal creates a Principal from a token and optional user/scopes.
func NewPrincipal(token string, user string, scopes []string) *Principal {
	id := user
	if id == "" {
		// Fallback: derive stable ID from token.
		// "t_" prefix to distinguish from potential username collisions.
		hash := sha256.Sum256([]byte(token))
		id = "t_" + hex.EncodeToString(hash[:])[:16]
	}

	return &Principal{
		ID:     id,
		Scopes: scopes,
		User:   user,
	}
}

// Anonymous returns the principal used for unauthenticated read-only
// access when the operator enables it.
func Anonymous() *Principal {
	return &Principal{
		ID:     "anonymous",
		Scopes: []string{ScopeRead},
	}
}

// HasScope reports whether the principal carries the given scope.
func (p *Principal) HasScope(scope string) bool {
	if p == nil {
		return false
	}
	for _, s := range p.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

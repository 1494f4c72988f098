// SPDX-License-Identifier: MIT

package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtractToken_PriorityOrder(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.local/test", nil)
	r.Header.Set("Authorization", "Bearer bearer-token ")
	r.Header.Set("X-API-Token", "header-token")

	if got := ExtractToken(r); got != "bearer-token" {
		t.Fatalf("ExtractToken() = %q, want %q", got, "bearer-token")
	}
}

func TestExtractToken_LegacyHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.local/test", nil)
	r.Header.Set("X-API-Token", "header-token")

	if got := ExtractToken(r); got != "header-token" {
		t.Fatalf("ExtractToken() = %q, want %q", got, "header-token")
	}
}

func TestExtractToken_None(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.local/test?token=query-token", nil)

	// Query parameters are never an accepted credential carrier.
	if got := ExtractToken(r); got != "" {
		t.Fatalf("ExtractToken() = %q, want empty", got)
	}
}

func TestAuthorizeToken(t *testing.T) {
	if AuthorizeToken("secret", "secret") != true {
		t.Fatal("AuthorizeToken should accept exact match")
	}
	if AuthorizeToken("secret", "other") != false {
		t.Fatal("AuthorizeToken should reject mismatch")
	}
	if AuthorizeToken("", "secret") != false {
		t.Fatal("AuthorizeToken should reject empty got token")
	}
	if AuthorizeToken("secret", "") != false {
		t.Fatal("AuthorizeToken should reject empty expected token")
	}
}

func TestAuthorizeRequest(t *testing.T) {
	expected := "secret"

	r := httptest.NewRequest(http.MethodGet, "http://example.local/test", nil)
	r.Header.Set("Authorization", "Bearer secret")
	if AuthorizeRequest(r, expected) != true {
		t.Fatal("AuthorizeRequest should accept matching bearer token")
	}

	r = httptest.NewRequest(http.MethodGet, "http://example.local/test", nil)
	if AuthorizeRequest(r, expected) != false {
		t.Fatal("AuthorizeRequest should reject request without credentials")
	}

	if AuthorizeRequest(nil, expected) != false {
		t.Fatal("AuthorizeRequest should reject nil request")
	}
}

func TestNewPrincipal(t *testing.T) {
	p := NewPrincipal("secret-token", "", []string{ScopeRead, ScopeWrite})
	if !strings.HasPrefix(p.ID, "t_") {
		t.Fatalf("expected token-derived ID with t_ prefix, got %q", p.ID)
	}
	if len(p.ID) != 2+16 {
		t.Fatalf("expected 16 hex chars after prefix, got %q", p.ID)
	}
	if !p.HasScope(ScopeWrite) {
		t.Fatal("expected write scope")
	}

	p = NewPrincipal("secret-token", "analyst", []string{ScopeRead})
	if p.ID != "analyst" {
		t.Fatalf("expected user as ID, got %q", p.ID)
	}
	if p.HasScope(ScopeWrite) {
		t.Fatal("did not expect write scope")
	}
}

func TestAnonymous(t *testing.T) {
	p := Anonymous()
	if p.ID != "anonymous" {
		t.Fatalf("unexpected ID %q", p.ID)
	}
	if !p.HasScope(ScopeRead) || p.HasScope(ScopeWrite) {
		t.Fatal("anonymous principal must be read-only")
	}

	var nilPrincipal *Principal
	if nilPrincipal.HasScope(ScopeRead) {
		t.Fatal("nil principal must have no scopes")
	}
}

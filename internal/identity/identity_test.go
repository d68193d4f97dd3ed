package identity_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docvault/docvault/internal/identity"
)

func TestMiddlewareResolvesHeader(t *testing.T) {
	var got string
	handler := identity.Middleware(identity.NewHeaderResolver(""))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = identity.FromContext(r.Context())
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set(identity.DefaultHeader, "alice")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got != "alice" {
		t.Errorf("user = %q, want alice", got)
	}
}

func TestMiddlewareRejectsMissingIdentity(t *testing.T) {
	called := false
	handler := identity.Middleware(identity.NewHeaderResolver(""))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if called {
		t.Error("handler invoked without identity")
	}
}

func TestFromContextWithoutUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if _, ok := identity.FromContext(req.Context()); ok {
		t.Error("expected no identity on bare context")
	}
}

func TestCustomHeader(t *testing.T) {
	resolver := identity.NewHeaderResolver("X-Internal-User")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Internal-User", "bob")

	id, err := resolver.Resolve(req)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id != "bob" {
		t.Errorf("id = %q, want bob", id)
	}
}

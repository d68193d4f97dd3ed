// Package identity integrates the external identity provider. Authentication
// happens upstream; the service receives an opaque authenticated user id per
// request and treats it as trusted.
package identity

import (
	"context"
	"errors"
	"net/http"
)

// DefaultHeader is the header the upstream auth layer sets after
// authenticating a request.
const DefaultHeader = "X-User-Id"

// ErrUnauthenticated indicates the request carried no resolvable user identity.
var ErrUnauthenticated = errors.New("identity: unauthenticated request")

// Resolver extracts the authenticated user id from a request.
type Resolver interface {
	Resolve(r *http.Request) (string, error)
}

// HeaderResolver resolves the user id from a trusted request header.
type HeaderResolver struct {
	Header string
}

// NewHeaderResolver creates a resolver for the given header,
// falling back to DefaultHeader when empty.
func NewHeaderResolver(header string) HeaderResolver {
	if header == "" {
		header = DefaultHeader
	}
	return HeaderResolver{Header: header}
}

// Resolve returns the user id carried by the configured header.
func (h HeaderResolver) Resolve(r *http.Request) (string, error) {
	id := r.Header.Get(h.Header)
	if id == "" {
		return "", ErrUnauthenticated
	}
	return id, nil
}

type contextKey struct{}

// WithUser returns a context carrying the authenticated user id.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// FromContext returns the authenticated user id stored on the context.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// Middleware resolves the request identity and stores it on the context.
// Requests without a resolvable identity are rejected with 401.
func Middleware(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := resolver.Resolve(r)
			if err != nil {
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
		})
	}
}

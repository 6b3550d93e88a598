package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// contextKey is an unexported type for context keys in this package.
// A package-private key type means only this package can read or write the
// identity value — no collisions with other packages' context values.
type contextKey string

const identityKey contextKey = "identity"

// ErrNoToken is returned when no bearer token is present on the request.
var ErrNoToken = errors.New("auth: missing bearer token")

// RequireAuth enforces authentication on protected routes.
//
// It reads the JWT from the Authorization header ("Bearer <token>"),
// validates it as an access token, and stores the decoded identity in the
// request context. A missing, malformed, expired, or tampered token
// short-circuits with 401 before any handler runs.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, err := extractIdentity(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprintln(w, `{"error":"unauthorized","message":"valid authentication required"}`)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the identity when a valid token is present but does
// not block the request otherwise. Handlers detect the anonymous case via
// IdentityFromContext returning (nil, false).
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ident, err := extractIdentity(r, tokens); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), identityKey, ident))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext retrieves the authenticated identity from the request
// context. Returns (nil, false) for anonymous requests.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	ident, ok := ctx.Value(identityKey).(*Identity)
	return ident, ok && ident != nil && ident.UserID != ""
}

// extractIdentity reads and validates the bearer token from the
// Authorization header.
func extractIdentity(r *http.Request, tokens *TokenService) (*Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return nil, ErrNoToken
	}

	return tokens.ValidateAccess(strings.TrimPrefix(header, "Bearer "))
}

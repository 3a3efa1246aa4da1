package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is unexported so no other package can read or overwrite the
// identity stored by this middleware.
type contextKey string

const usernameKey contextKey = "username"

// cookieName is accepted as a fallback for browser clients.
const cookieName = "token"

var errNoToken = errors.New("auth: no token presented")

// RequireAuth rejects the request with 401 unless it carries a valid token.
// On success the username is available through UsernameFromContext.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, err := extractUsername(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}` + "\n"))
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUsername(r.Context(), username)))
		})
	}
}

// OptionalAuth records the identity when a valid token is present and lets
// anonymous requests through untouched. Used on the read-only routes.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if username, err := extractUsername(r, tokens); err == nil {
				r = r.WithContext(ContextWithUsername(r.Context(), username))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContextWithUsername returns a copy of ctx carrying username.
func ContextWithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// UsernameFromContext returns ("", false) for anonymous requests.
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok && username != ""
}

// extractUsername reads "Authorization: Bearer <jwt>", falling back to the
// token cookie, and validates it.
func extractUsername(r *http.Request, tokens *TokenService) (string, error) {
	raw := ""
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return "", errNoToken
		}
		raw = strings.TrimSpace(value)
	} else if cookie, err := r.Cookie(cookieName); err == nil {
		raw = cookie.Value
	}
	if raw == "" {
		return "", errNoToken
	}

	return tokens.Validate(raw)
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// echoUsername writes the identity the middleware stored, or "anonymous".
func echoUsername(w http.ResponseWriter, r *http.Request) {
	username, ok := UsernameFromContext(r.Context())
	if !ok {
		username = "anonymous"
	}
	_, _ = w.Write([]byte(username))
}

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)
	token, err := ts.Generate("ada")
	assert.NoError(t, err)

	h := RequireAuth(ts)(http.HandlerFunc(echoUsername))

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bearer header",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			wantStatus: http.StatusOK,
			wantBody:   "ada",
		},
		{
			name:       "lowercase scheme",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "bearer "+token) },
			wantStatus: http.StatusOK,
			wantBody:   "ada",
		},
		{
			name:       "cookie fallback",
			setup:      func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: token}) },
			wantStatus: http.StatusOK,
			wantBody:   "ada",
		},
		{
			name:       "no credentials",
			setup:      func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Basic "+token) },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			tt.setup(req)
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rr.Body.String())
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate("grace")
	h := OptionalAuth(ts)(http.HandlerFunc(echoUsername))

	anon := httptest.NewRecorder()
	h.ServeHTTP(anon, httptest.NewRequest(http.MethodGet, "/api/snippets", nil))
	assert.Equal(t, http.StatusOK, anon.Code)
	assert.Equal(t, "anonymous", anon.Body.String())

	bad := httptest.NewRequest(http.MethodGet, "/api/snippets", nil)
	bad.Header.Set("Authorization", "Bearer garbage")
	badRR := httptest.NewRecorder()
	h.ServeHTTP(badRR, bad)
	assert.Equal(t, "anonymous", badRR.Body.String())

	authed := httptest.NewRequest(http.MethodGet, "/api/snippets", nil)
	authed.Header.Set("Authorization", "Bearer "+token)
	authedRR := httptest.NewRecorder()
	h.ServeHTTP(authedRR, authed)
	assert.Equal(t, "grace", authedRR.Body.String())
}

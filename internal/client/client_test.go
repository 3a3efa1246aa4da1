package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorlut/cheathub/internal/apperror"
	"github.com/victorlut/cheathub/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(Options{BaseURL: server.URL, Tokens: StaticToken(token)})
	require.NoError(t, err)
	return c
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080", u.String())

	u, err = parseBaseURL("localhost:9000")
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "localhost:9000", u.Host)

	u, err = parseBaseURL("https://example.com/api?x=1#frag")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", u.String())
}

func TestClient_CreateSendsDraftWithSplitTags(t *testing.T) {
	var (
		gotBody      snippetBody
		gotAuth      string
		gotRequestID string
		gotMethod    string
	)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get(RequestIDHeader)
		require.Equal(t, "/api/snippets", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(model.Snippet{
			ID: "srv-1", Title: gotBody.Title, Tags: gotBody.Tags, AddedBy: "ada", LikedBy: []string{},
		})
	}, "tkn")

	draft := model.Draft{
		Title:       "Quicksort",
		Value:       "def qs(xs): ...",
		Description: "in-place sort",
		Language:    "python",
		Tags:        "sort, algo",
	}
	snippet, err := c.Create(testContext(t), draft)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "Bearer tkn", gotAuth)
	_, parseErr := uuid.Parse(gotRequestID)
	assert.NoError(t, parseErr, "request id should be a uuid")
	assert.Equal(t, []string{"sort", "algo"}, gotBody.Tags)
	assert.Equal(t, "in-place sort", gotBody.Description)
	assert.Equal(t, "srv-1", snippet.ID)
}

func TestClient_AnonymousSendsNoAuthorization(t *testing.T) {
	var hadAuth bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		_ = json.NewEncoder(w).Encode([]model.Snippet{})
	}, "")

	_, err := c.List(testContext(t), ListOptions{})
	require.NoError(t, err)
	assert.False(t, hadAuth)
}

func TestClient_ListEncodesQuery(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = map[string]string{}
		for k := range r.URL.Query() {
			got[k] = r.URL.Query().Get(k)
		}
		_ = json.NewEncoder(w).Encode([]model.Snippet{{ID: "a"}})
	}, "")

	snippets, err := c.List(testContext(t), ListOptions{Limit: 5, Offset: 10, Language: " go ", Tag: "sort"})
	require.NoError(t, err)
	assert.Len(t, snippets, 1)
	assert.Equal(t, map[string]string{"limit": "5", "offset": "10", "language": "go", "tag": "sort"}, got)
}

func TestClient_FavoritesReturnLikeSet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/snippets/abc/fave", r.URL.Path)
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string][]string{"likedBy": {"grace", "ada"}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"likedBy": nil})
	}, "tkn")

	likes, err := c.AddFavorite(testContext(t), "abc", "ada")
	require.NoError(t, err)
	assert.Equal(t, []string{"grace", "ada"}, likes)

	likes, err = c.RemoveFavorite(testContext(t), "abc", "ada")
	require.NoError(t, err)
	assert.NotNil(t, likes)
	assert.Empty(t, likes)

	_, err = c.AddFavorite(testContext(t), "abc", "")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestClient_EscapesIDs(t *testing.T) {
	var gotRaw string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotRaw = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	}, "tkn")

	require.NoError(t, c.Remove(testContext(t), "a/b"))
	assert.Equal(t, "/api/snippets/a%2Fb", gotRaw)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		code    string
		want    error
		message string
	}{
		{"not found", http.StatusNotFound, "not_found", apperror.ErrNotFound, "snippet not found with id x"},
		{"validation", http.StatusBadRequest, "validation_error", apperror.ErrValidation, "missing required fields: title"},
		{"already favorited", http.StatusConflict, "already_favorited", apperror.ErrAlreadyFavorited, "already"},
		{"not favorited", http.StatusConflict, "not_favorited", apperror.ErrNotFavorited, "not yet"},
		{"plain conflict", http.StatusConflict, "conflict", apperror.ErrConflict, "taken"},
		{"forbidden", http.StatusForbidden, "forbidden", apperror.ErrForbidden, "not yours"},
		{"server error", http.StatusInternalServerError, "internal_error", apperror.ErrNetwork, "An internal error occurred"},
		{"gateway without body", http.StatusBadGateway, "", apperror.ErrNetwork, "server returned 502 Bad Gateway"},
		{"unknown code falls back to status", http.StatusNotFound, "gone_fishing", apperror.ErrNotFound, "gone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.code == "" {
					w.WriteHeader(tt.status)
					return
				}
				writeAPIError(w, tt.status, tt.code, tt.message)
			}, "tkn")

			_, err := c.Fetch(testContext(t), "x")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.message, apperror.Message(err))
		})
	}
}

func TestClient_TransportFailureIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c, err := New(Options{BaseURL: url})
	require.NoError(t, err)

	_, err = c.Fetch(testContext(t), "x")
	assert.ErrorIs(t, err, apperror.ErrNetwork)
}

type failingTokens struct{}

func (failingTokens) Token() (string, error) { return "", errors.New("keyring locked") }

func TestClient_TokenSourceError(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	t.Cleanup(server.Close)

	c, err := New(Options{BaseURL: server.URL, Tokens: failingTokens{}})
	require.NoError(t, err)

	_, err = c.Fetch(testContext(t), "x")
	assert.ErrorContains(t, err, "keyring locked")
	assert.False(t, called)
}

package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorlut/cheathub/internal/apperror"
	"github.com/victorlut/cheathub/internal/auth"
	"github.com/victorlut/cheathub/internal/handler"
	"github.com/victorlut/cheathub/internal/model"
	"github.com/victorlut/cheathub/internal/service"
)

// MockSnippetService records the last call and returns canned values.
type MockSnippetService struct {
	CapturedOwner  string
	CapturedID     string
	CapturedInput  service.SnippetInput
	CapturedParams service.ListParams

	ReturnSnippet *model.Snippet
	ReturnList    []model.Snippet
	ReturnLikes   []string
	ReturnErr     error
}

func (m *MockSnippetService) Create(_ context.Context, owner string, in service.SnippetInput) (*model.Snippet, error) {
	m.CapturedOwner, m.CapturedInput = owner, in
	return m.ReturnSnippet, m.ReturnErr
}

func (m *MockSnippetService) GetByID(_ context.Context, viewer, id string) (*model.Snippet, error) {
	m.CapturedOwner, m.CapturedID = viewer, id
	return m.ReturnSnippet, m.ReturnErr
}

func (m *MockSnippetService) List(_ context.Context, viewer string, p service.ListParams) ([]model.Snippet, error) {
	m.CapturedOwner, m.CapturedParams = viewer, p
	return m.ReturnList, m.ReturnErr
}

func (m *MockSnippetService) Update(_ context.Context, owner, id string, in service.SnippetInput) (*model.Snippet, error) {
	m.CapturedOwner, m.CapturedID, m.CapturedInput = owner, id, in
	return m.ReturnSnippet, m.ReturnErr
}

func (m *MockSnippetService) Delete(_ context.Context, owner, id string) error {
	m.CapturedOwner, m.CapturedID = owner, id
	return m.ReturnErr
}

func (m *MockSnippetService) AddFavorite(_ context.Context, username, id string) ([]string, error) {
	m.CapturedOwner, m.CapturedID = username, id
	return m.ReturnLikes, m.ReturnErr
}

func (m *MockSnippetService) RemoveFavorite(_ context.Context, username, id string) ([]string, error) {
	m.CapturedOwner, m.CapturedID = username, id
	return m.ReturnLikes, m.ReturnErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newSnippetRouter mounts the handler the way the server does, minus JWT:
// the identity is injected directly when user is non-empty.
func newSnippetRouter(svc handler.SnippetService, user string) http.Handler {
	h := handler.NewSnippetHandler(svc, testLogger())
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if user != "" {
				req = req.WithContext(auth.ContextWithUsername(req.Context(), user))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/api/snippets", h.HandleList)
	r.Post("/api/snippets", h.HandleCreate)
	r.Get("/api/snippets/{id}", h.HandleGetByID)
	r.Put("/api/snippets/{id}", h.HandleUpdate)
	r.Delete("/api/snippets/{id}", h.HandleDelete)
	r.Post("/api/snippets/{id}/fave", h.HandleFave)
	r.Delete("/api/snippets/{id}/fave", h.HandleUnfave)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var res handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	return res
}

func TestSnippetHandler_Create(t *testing.T) {
	t.Run("valid snippet", func(t *testing.T) {
		mock := &MockSnippetService{ReturnSnippet: &model.Snippet{ID: "abc", Title: "Quicksort", AddedBy: "ada"}}
		router := newSnippetRouter(mock, "ada")

		body := `{"title":"Quicksort","value":"qs()","description":"sort","language":"python","tags":["sort","algo"],"private":true}`
		rr := do(t, router, http.MethodPost, "/api/snippets", body)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "ada", mock.CapturedOwner)
		assert.Equal(t, []string{"sort", "algo"}, mock.CapturedInput.Tags)
		assert.True(t, mock.CapturedInput.Private)

		var res model.Snippet
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "abc", res.ID)
	})

	t.Run("invalid request body", func(t *testing.T) {
		router := newSnippetRouter(&MockSnippetService{}, "ada")

		rr := do(t, router, http.MethodPost, "/api/snippets", `{"title":`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, handler.CodeValidation, decodeError(t, rr).Error)
	})

	t.Run("unknown field", func(t *testing.T) {
		router := newSnippetRouter(&MockSnippetService{}, "ada")

		rr := do(t, router, http.MethodPost, "/api/snippets", `{"name":"old teacher field"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		mock := &MockSnippetService{ReturnErr: apperror.MissingFields("title", "language")}
		router := newSnippetRouter(mock, "ada")

		rr := do(t, router, http.MethodPost, "/api/snippets", `{}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		res := decodeError(t, rr)
		assert.Equal(t, handler.CodeValidation, res.Error)
		assert.Equal(t, "missing required fields: title, language", res.Message)
	})
}

func TestSnippetHandler_ListParams(t *testing.T) {
	mock := &MockSnippetService{ReturnList: []model.Snippet{{ID: "a"}, {ID: "b"}}}
	router := newSnippetRouter(mock, "")

	rr := do(t, router, http.MethodGet, "/api/snippets?limit=5&offset=nope&language=go&tag=sort", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "", mock.CapturedOwner)
	assert.Equal(t, service.ListParams{Limit: 5, Language: "go", Tag: "sort"}, mock.CapturedParams)

	var res []model.Snippet
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Len(t, res, 2)
}

func TestSnippetHandler_PathID(t *testing.T) {
	mock := &MockSnippetService{ReturnSnippet: &model.Snippet{ID: "xyz"}}
	router := newSnippetRouter(mock, "grace")

	rr := do(t, router, http.MethodGet, "/api/snippets/xyz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "xyz", mock.CapturedID)
	assert.Equal(t, "grace", mock.CapturedOwner)

	rr = do(t, router, http.MethodPut, "/api/snippets/xyz",
		`{"title":"t","value":"v","description":"d","language":"go"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "t", mock.CapturedInput.Title)

	rr = do(t, router, http.MethodDelete, "/api/snippets/xyz", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestSnippetHandler_Favorites(t *testing.T) {
	mock := &MockSnippetService{ReturnLikes: []string{"ada", "grace"}}
	router := newSnippetRouter(mock, "grace")

	rr := do(t, router, http.MethodPost, "/api/snippets/abc/fave", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"likedBy":["ada","grace"]}`, rr.Body.String())
	assert.Equal(t, "abc", mock.CapturedID)

	mock.ReturnLikes = []string{}
	rr = do(t, router, http.MethodDelete, "/api/snippets/abc/fave", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"likedBy":[]}`, rr.Body.String())
}

func TestSnippetHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperror.NotFound("snippet", "abc"), http.StatusNotFound, handler.CodeNotFound},
		{"unauthorized", apperror.Unauthorized("log in"), http.StatusUnauthorized, handler.CodeUnauthorized},
		{"forbidden", apperror.Forbidden("not yours"), http.StatusForbidden, handler.CodeForbidden},
		{"already favorited", apperror.AlreadyFavorited("abc", "ada"), http.StatusConflict, handler.CodeAlreadyFavorited},
		{"not favorited", apperror.NotFavorited("abc", "ada"), http.StatusConflict, handler.CodeNotFavorited},
		{"conflict", apperror.Conflict("user", "ada"), http.StatusConflict, handler.CodeConflict},
		{"raw error", errors.New("sql: database is locked"), http.StatusInternalServerError, handler.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newSnippetRouter(&MockSnippetService{ReturnErr: tt.err}, "ada")

			rr := do(t, router, http.MethodPost, "/api/snippets/abc/fave", "")

			assert.Equal(t, tt.wantStatus, rr.Code)
			res := decodeError(t, rr)
			assert.Equal(t, tt.wantCode, res.Error)
			assert.NotContains(t, res.Message, "sql")
		})
	}
}

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/victorlut/cheathub/internal/auth"
	"github.com/victorlut/cheathub/internal/model"
	"github.com/victorlut/cheathub/internal/service"
)

// SnippetService is the subset of *service.SnippetService the handler uses.
// Declared here so handler tests can substitute a fake.
type SnippetService interface {
	Create(ctx context.Context, owner string, input service.SnippetInput) (*model.Snippet, error)
	GetByID(ctx context.Context, viewer, id string) (*model.Snippet, error)
	List(ctx context.Context, viewer string, params service.ListParams) ([]model.Snippet, error)
	Update(ctx context.Context, owner, id string, input service.SnippetInput) (*model.Snippet, error)
	Delete(ctx context.Context, owner, id string) error
	AddFavorite(ctx context.Context, username, id string) ([]string, error)
	RemoveFavorite(ctx context.Context, username, id string) ([]string, error)
}

var _ SnippetService = (*service.SnippetService)(nil)

// SnippetHandler serves /api/snippets.
type SnippetHandler struct {
	service SnippetService
	logger  *slog.Logger
}

func NewSnippetHandler(svc SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{service: svc, logger: logger}
}

// snippetRequest is the body of POST and PUT /api/snippets.
type snippetRequest struct {
	Title       string   `json:"title"`
	Value       string   `json:"value"`
	Description string   `json:"description"`
	Language    string   `json:"language"`
	Tags        []string `json:"tags"`
	Source      string   `json:"source"`
	Private     bool     `json:"private"`
}

func (req snippetRequest) input() service.SnippetInput {
	return service.SnippetInput{
		Title:       req.Title,
		Value:       req.Value,
		Description: req.Description,
		Language:    req.Language,
		Tags:        req.Tags,
		Source:      req.Source,
		Private:     req.Private,
	}
}

// favoriteResponse is returned by the fave routes.
type favoriteResponse struct {
	LikedBy []string `json:"likedBy"`
}

// viewer returns the caller's username, or "" for anonymous requests.
func viewer(r *http.Request) string {
	username, _ := auth.UsernameFromContext(r.Context())
	return username
}

// HandleList returns a page of visible snippets.
//
// HTTP: GET /api/snippets?limit=20&offset=0&language=go&tag=sort
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := service.ListParams{
		Language: q.Get("language"),
		Tag:      q.Get("tag"),
	}
	// Malformed numbers fall back to the defaults instead of failing.
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		params.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil {
		params.Offset = n
	}

	snippets, err := h.service.List(r.Context(), viewer(r), params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleGetByID returns one snippet.
//
// HTTP: GET /api/snippets/{id}
func (h *SnippetHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.service.GetByID(r.Context(), viewer(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleCreate stores a new snippet owned by the caller.
//
// HTTP: POST /api/snippets
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req snippetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	snippet, err := h.service.Create(r.Context(), viewer(r), req.input())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snippet)
}

// HandleUpdate replaces the editable fields and returns the stored snippet.
//
// HTTP: PUT /api/snippets/{id}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req snippetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	snippet, err := h.service.Update(r.Context(), viewer(r), chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes a snippet.
//
// HTTP: DELETE /api/snippets/{id} → 204 No Content
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), viewer(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleFave adds the caller to the snippet's like-set.
//
// HTTP: POST /api/snippets/{id}/fave → {"likedBy": [...]}
func (h *SnippetHandler) HandleFave(w http.ResponseWriter, r *http.Request) {
	likedBy, err := h.service.AddFavorite(r.Context(), viewer(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, favoriteResponse{LikedBy: likedBy})
}

// HandleUnfave removes the caller from the snippet's like-set.
//
// HTTP: DELETE /api/snippets/{id}/fave → {"likedBy": [...]}
func (h *SnippetHandler) HandleUnfave(w http.ResponseWriter, r *http.Request) {
	likedBy, err := h.service.RemoveFavorite(r.Context(), viewer(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, favoriteResponse{LikedBy: likedBy})
}

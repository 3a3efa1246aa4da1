// Package service contains the business rules of the API server.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces ownership and visibility
//	Repository (data layer)  → reads/writes the database
//
// Services accept plain Go values and return apperror values; they know
// nothing about HTTP. Repositories are injected as interfaces so tests run
// against in-memory fakes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/victorlut/cheathub/internal/apperror"
	"github.com/victorlut/cheathub/internal/model"
	"github.com/victorlut/cheathub/internal/repository"
)

const (
	MaxTitleLength    = 100
	MaxValueLength    = 100000 // ~100KB of code
	MaxLanguageLength = 40
	MaxTags           = 20
	DefaultListLimit  = 20
	MaxListLimit      = 100
)

// SnippetInput carries the client-editable fields of a snippet.
type SnippetInput struct {
	Title       string
	Value       string
	Description string
	Language    string
	Tags        []string
	Source      string
	Private     bool
}

// ListParams narrows a List call.
type ListParams struct {
	Limit    int
	Offset   int
	Language string
	Tag      string
}

// SnippetService handles business logic for code snippets.
type SnippetService struct {
	repo   repository.SnippetRepository
	logger *slog.Logger
}

// NewSnippetService creates a new SnippetService.
func NewSnippetService(repo repository.SnippetRepository, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		repo:   repo,
		logger: logger,
	}
}

// normalize trims the input and checks every rule. Title, value,
// description and language are required.
func (in SnippetInput) normalize() (SnippetInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Language = strings.TrimSpace(in.Language)
	in.Source = strings.TrimSpace(in.Source)

	var missing []string
	if in.Title == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(in.Value) == "" {
		missing = append(missing, "value")
	}
	if in.Description == "" {
		missing = append(missing, "description")
	}
	if in.Language == "" {
		missing = append(missing, "language")
	}
	if len(missing) > 0 {
		return in, apperror.MissingFields(missing...)
	}

	if len(in.Title) > MaxTitleLength {
		return in, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if len(in.Value) > MaxValueLength {
		return in, apperror.ValidationFailed("value",
			fmt.Sprintf("code must be %d characters or less", MaxValueLength))
	}
	if len(in.Language) > MaxLanguageLength {
		return in, apperror.ValidationFailed("language",
			fmt.Sprintf("language must be %d characters or less", MaxLanguageLength))
	}

	tags := make([]string, 0, len(in.Tags))
	for _, tag := range in.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) > MaxTags {
		return in, apperror.ValidationFailed("tags",
			fmt.Sprintf("a snippet can have at most %d tags", MaxTags))
	}
	in.Tags = tags

	if in.Source != "" {
		u, err := url.Parse(in.Source)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return in, apperror.ValidationFailed("source", "source must be an http(s) URL")
		}
	}

	return in, nil
}

// Create validates input and stores a new snippet owned by owner.
func (s *SnippetService) Create(ctx context.Context, owner string, input SnippetInput) (*model.Snippet, error) {
	if owner == "" {
		return nil, apperror.Unauthorized("log in to create snippets")
	}

	in, err := input.normalize()
	if err != nil {
		return nil, err
	}

	snippet := &model.Snippet{
		Title:       in.Title,
		Value:       in.Value,
		Description: in.Description,
		Language:    in.Language,
		Tags:        in.Tags,
		Source:      in.Source,
		Private:     in.Private,
		AddedBy:     owner,
	}

	if err := s.repo.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("title", in.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("title", snippet.Title),
		slog.String("owner", owner),
	)

	return snippet, nil
}

// GetByID returns a snippet visible to viewer. A private snippet looks
// exactly like a missing one to everybody but its owner.
func (s *SnippetService) GetByID(ctx context.Context, viewer, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if snippet.Private && snippet.AddedBy != viewer {
		return nil, apperror.NotFound("snippet", id)
	}

	return snippet, nil
}

// List returns a page of snippets visible to viewer, newest first.
func (s *SnippetService) List(ctx context.Context, viewer string, params ListParams) ([]model.Snippet, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	snippets, err := s.repo.List(ctx, repository.ListOptions{
		Limit:    limit,
		Offset:   offset,
		Viewer:   viewer,
		Language: strings.TrimSpace(params.Language),
		Tag:      strings.TrimSpace(params.Tag),
	})
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}

	return snippets, nil
}

// Update replaces the editable fields of snippet id. Only the owner may
// update; the new state is returned so the client can rebase its draft.
func (s *SnippetService) Update(ctx context.Context, owner, id string, input SnippetInput) (*model.Snippet, error) {
	snippet, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	in, err := input.normalize()
	if err != nil {
		return nil, err
	}

	snippet.Title = in.Title
	snippet.Value = in.Value
	snippet.Description = in.Description
	snippet.Language = in.Language
	snippet.Tags = in.Tags
	snippet.Source = in.Source
	snippet.Private = in.Private

	if err := s.repo.Update(ctx, snippet); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated",
		slog.String("id", snippet.ID),
		slog.String("title", snippet.Title),
	)

	return snippet, nil
}

// Delete removes snippet id. Only the owner may delete.
func (s *SnippetService) Delete(ctx context.Context, owner, id string) error {
	if _, err := s.owned(ctx, owner, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.String("id", id), slog.String("owner", owner))
	return nil
}

// AddFavorite puts username into the like-set of id and returns the set.
func (s *SnippetService) AddFavorite(ctx context.Context, username, id string) ([]string, error) {
	if _, err := s.GetByID(ctx, username, id); err != nil {
		return nil, err
	}

	likedBy, err := s.repo.AddLike(ctx, id, username)
	if err != nil {
		if !errors.Is(err, apperror.ErrAlreadyFavorited) {
			s.logger.Error("failed to add favorite",
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	s.logger.Info("favorite added", slog.String("id", id), slog.String("user", username))
	return likedBy, nil
}

// RemoveFavorite takes username out of the like-set of id and returns the set.
func (s *SnippetService) RemoveFavorite(ctx context.Context, username, id string) ([]string, error) {
	if _, err := s.GetByID(ctx, username, id); err != nil {
		return nil, err
	}

	likedBy, err := s.repo.RemoveLike(ctx, id, username)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFavorited) {
			s.logger.Error("failed to remove favorite",
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	s.logger.Info("favorite removed", slog.String("id", id), slog.String("user", username))
	return likedBy, nil
}

// owned fetches id and checks that owner added it.
func (s *SnippetService) owned(ctx context.Context, owner, id string) (*model.Snippet, error) {
	if owner == "" {
		return nil, apperror.Unauthorized("log in to change snippets")
	}

	snippet, err := s.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if snippet.AddedBy != owner {
		return nil, apperror.Forbidden("only the owner can change this snippet")
	}

	return snippet, nil
}

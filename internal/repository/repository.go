// Package repository declares the storage interfaces used by the service
// layer. internal/repository/sqlite provides the implementation; service
// tests use in-memory fakes.
package repository

import (
	"context"

	"github.com/victorlut/cheathub/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int

	// Viewer is the authenticated username, or "" for anonymous callers.
	// Private snippets are only listed for their owner.
	Viewer string

	// Optional exact-match filters.
	Language string
	Tag      string
}

type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	List(ctx context.Context, opts ListOptions) ([]model.Snippet, error)
	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id string) error

	// AddLike and RemoveLike change username's membership in the like-set
	// and return the resulting set. They fail with ErrAlreadyFavorited /
	// ErrNotFavorited when the membership is already in the requested state.
	AddLike(ctx context.Context, id, username string) ([]string, error)
	RemoveLike(ctx context.Context, id, username string) ([]string, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// Package session drives the lifecycle of one visited snippet: load, edit,
// submit and delete.
//
// A Controller is created when a snippet is entered and dropped when the
// caller navigates away; nothing is shared between controllers.
//
//	Enter("add") ─────────────────────────────▶ Create/Idle
//	Enter(id) ──▶ Loading ──ok──▶ Edit/Idle
//	                      └─err─▶ Error
//	Submit ──▶ Submitting ──ok──▶ Edit/Idle (draft rebased on the reply)
//	                      └─err─▶ Error     (draft untouched)
//	ConfirmDelete; Delete ──▶ Deleting ──ok──▶ closed
//	                                   └─err─▶ Error (confirmation cleared)
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/victorlut/cheathub/internal/apperror"
	"github.com/victorlut/cheathub/internal/draft"
	"github.com/victorlut/cheathub/internal/model"
	"github.com/victorlut/cheathub/internal/notify"
)

// NewID is the identifier that opens an empty draft instead of loading.
const NewID = "add"

var (
	// ErrBusy is returned when an operation is started while another one
	// (load, submit or delete) is still in flight.
	ErrBusy = errors.New("session: an operation is already in progress")

	// ErrClosed is returned by every operation after a successful delete.
	ErrClosed = errors.New("session: snippet was deleted")

	// ErrCancelUnavailable is returned by Cancel outside Create/Idle.
	ErrCancelUnavailable = errors.New("session: cancel is only available while creating")

	// ErrNoSnippet is returned when an operation needs a server snippet
	// and the session has none (create mode, or a failed load).
	ErrNoSnippet = errors.New("session: no saved snippet")

	// ErrSuperseded is returned by an operation whose result arrived after
	// the session was re-entered; the result is dropped.
	ErrSuperseded = errors.New("session: result dropped after re-entry")
)

// Repository is the part of the API the session needs.
type Repository interface {
	Fetch(ctx context.Context, id string) (*model.Snippet, error)
	Create(ctx context.Context, d model.Draft) (*model.Snippet, error)
	Update(ctx context.Context, id string, d model.Draft) (*model.Snippet, error)
	Remove(ctx context.Context, id string) error
}

// Controller owns the draft of one snippet and mediates every change to
// it. All methods are safe for concurrent use. The lock is released
// around repository calls, so field edits and snapshots never wait on the
// network.
type Controller struct {
	repo   Repository
	logger *slog.Logger

	mu      sync.Mutex
	store   *draft.Store
	mode    Mode
	phase   Phase
	basis   *model.Snippet
	pending bool
	lastErr error
	closed  bool
	// generation changes on every Enter; results from an older
	// generation are dropped.
	generation uint64

	snapshots notify.Broadcaster[Snapshot]
}

// New returns a controller in Create/Idle with an empty draft.
func New(repo Repository, logger *slog.Logger) *Controller {
	return &Controller{
		repo:   repo,
		logger: logger,
		store:  draft.New(),
		mode:   ModeCreate,
		phase:  PhaseIdle,
	}
}

// Subscribe registers fn to receive a Snapshot after every transition.
// fn runs with the controller locked and must not call back into it.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return c.snapshots.Subscribe(fn)
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		Mode:                c.mode,
		Phase:               c.phase,
		Draft:               c.store.Draft(),
		PendingConfirmation: c.pending,
		Err:                 c.lastErr,
		Closed:              c.closed,
	}
	if c.basis != nil {
		basis := cloneSnippet(*c.basis)
		s.Basis = &basis
	}
	return s
}

func (c *Controller) publishLocked() {
	c.snapshots.Publish(c.snapshotLocked())
}

// Enter starts a new visit, dropping whatever the session held before.
// NewID opens an empty draft in Create mode; any other id is fetched.
func (c *Controller) Enter(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.closed = false
	c.pending = false
	c.lastErr = nil
	c.basis = nil
	c.store.Reset()

	if id == NewID {
		c.mode = ModeCreate
		c.phase = PhaseIdle
		c.publishLocked()
		c.mu.Unlock()
		return nil
	}

	c.mode = ModeEdit
	if id == "" {
		err := apperror.ValidationFailed("id", "snippet id is required")
		c.failLocked(err)
		c.mu.Unlock()
		return err
	}

	c.phase = PhaseLoading
	c.publishLocked()
	c.mu.Unlock()

	snippet, err := c.repo.Fetch(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return ErrSuperseded
	}
	if err != nil {
		c.logger.Warn("failed to load snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		c.failLocked(err)
		return fmt.Errorf("session: loading %s: %w", id, err)
	}

	c.rebaseLocked(snippet)
	c.phase = PhaseIdle
	c.publishLocked()

	c.logger.Debug("snippet loaded", slog.String("id", snippet.ID))
	return nil
}

// Submit validates the draft and sends it: Create in create mode, Update
// in edit mode. A missing required field fails locally with a validation
// error naming every such field; the phase is left as it was.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if err := c.readyLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.mode == ModeEdit && c.basis == nil {
		c.mu.Unlock()
		return ErrNoSnippet
	}

	if missing := c.store.Missing(); len(missing) > 0 {
		err := apperror.MissingFields(missing...)
		c.lastErr = err
		c.publishLocked()
		c.mu.Unlock()
		return err
	}

	gen := c.generation
	mode := c.mode
	d := c.store.Draft()
	id := c.store.ID()

	c.phase = PhaseSubmitting
	c.lastErr = nil
	c.publishLocked()
	c.mu.Unlock()

	var (
		snippet *model.Snippet
		err     error
	)
	if mode == ModeCreate {
		snippet, err = c.repo.Create(ctx, d)
	} else {
		snippet, err = c.repo.Update(ctx, id, d)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return ErrSuperseded
	}
	if err != nil {
		c.logger.Warn("failed to submit snippet",
			slog.String("mode", mode.String()),
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		c.failLocked(err)
		return fmt.Errorf("session: submitting: %w", err)
	}

	c.rebaseLocked(snippet)
	c.mode = ModeEdit
	c.phase = PhaseIdle
	c.publishLocked()

	c.logger.Info("snippet saved",
		slog.String("id", snippet.ID),
		slog.String("mode", mode.String()),
	)
	return nil
}

// ConfirmDelete arms Delete. It is the explicit confirmation step.
func (c *Controller) ConfirmDelete() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.readyLocked(); err != nil {
		return err
	}
	if c.mode != ModeEdit || c.basis == nil {
		return ErrNoSnippet
	}

	c.pending = true
	c.publishLocked()
	return nil
}

// DismissDelete disarms Delete.
func (c *Controller) DismissDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending {
		c.pending = false
		c.publishLocked()
	}
}

// Delete removes the snippet on the server. Without a prior ConfirmDelete
// it does nothing and returns false. After a successful delete the session
// is closed and every later call except Enter returns ErrClosed.
func (c *Controller) Delete(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if err := c.readyLocked(); err != nil {
		c.mu.Unlock()
		return false, err
	}
	if !c.pending {
		c.mu.Unlock()
		return false, nil
	}
	if c.mode != ModeEdit || c.basis == nil {
		c.mu.Unlock()
		return false, ErrNoSnippet
	}

	gen := c.generation
	id := c.basis.ID
	c.phase = PhaseDeleting
	c.lastErr = nil
	c.publishLocked()
	c.mu.Unlock()

	err := c.repo.Remove(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return false, ErrSuperseded
	}
	c.pending = false
	if err != nil {
		c.logger.Warn("failed to delete snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		c.failLocked(err)
		return false, fmt.Errorf("session: deleting %s: %w", id, err)
	}

	c.closed = true
	c.phase = PhaseIdle
	c.publishLocked()

	c.logger.Info("snippet deleted", slog.String("id", id))
	return true, nil
}

// Cancel empties the draft without contacting the server. It exists only
// while creating; an edit session has no discard path.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.mode != ModeCreate || c.phase != PhaseIdle {
		return ErrCancelUnavailable
	}

	c.store.Reset()
	c.lastErr = nil
	c.publishLocked()
	return nil
}

// SetTitle and the other setters edit one draft field. They fail while an
// operation is in flight or after the session closed.
func (c *Controller) SetTitle(v string) error {
	return c.edit(func(s *draft.Store) { s.SetTitle(v) })
}

func (c *Controller) SetValue(v string) error {
	return c.edit(func(s *draft.Store) { s.SetValue(v) })
}

func (c *Controller) SetDescription(v string) error {
	return c.edit(func(s *draft.Store) { s.SetDescription(v) })
}

func (c *Controller) SetLanguage(v string) error {
	return c.edit(func(s *draft.Store) { s.SetLanguage(v) })
}

// SetTags takes the delimited form, e.g. "sort, algo".
func (c *Controller) SetTags(v string) error {
	return c.edit(func(s *draft.Store) { s.SetTags(v) })
}

func (c *Controller) SetSource(v string) error {
	return c.edit(func(s *draft.Store) { s.SetSource(v) })
}

func (c *Controller) SetPrivate(v bool) error {
	return c.edit(func(s *draft.Store) { s.SetPrivate(v) })
}

func (c *Controller) edit(apply func(*draft.Store)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.readyLocked(); err != nil {
		return err
	}
	apply(c.store)
	c.publishLocked()
	return nil
}

// readyLocked reports whether a new operation may start.
func (c *Controller) readyLocked() error {
	if c.closed {
		return ErrClosed
	}
	if !c.phase.Settled() {
		return ErrBusy
	}
	return nil
}

func (c *Controller) failLocked(err error) {
	c.phase = PhaseError
	c.lastErr = err
	c.pending = false
	c.publishLocked()
}

// rebaseLocked makes snippet the server basis and reloads the draft from it.
func (c *Controller) rebaseLocked(snippet *model.Snippet) {
	basis := cloneSnippet(*snippet)
	c.basis = &basis
	c.store.Load(basis)
	c.lastErr = nil
}

func cloneSnippet(s model.Snippet) model.Snippet {
	s.Tags = append([]string(nil), s.Tags...)
	s.LikedBy = append([]string(nil), s.LikedBy...)
	return s
}

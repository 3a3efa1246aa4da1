// Package favorite toggles the viewer's membership in a snippet's like-set
// optimistically.
//
// A toggle is two transitions:
//
//	begin   flip Favorited and the local LikedBy now, stamp a token
//	settle  the reply for the latest token either confirms (LikedBy is
//	        replaced by the server's set) or reverts to the pre-toggle
//	        state; replies for older tokens are dropped untouched
//
// Toggles are not serialized. Several may be in flight; only the newest
// one's reply is ever applied.
package favorite

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/victorlut/cheathub/internal/model"
	"github.com/victorlut/cheathub/internal/notify"
)

// Repository is the part of the API the controller needs.
type Repository interface {
	AddFavorite(ctx context.Context, id, user string) ([]string, error)
	RemoveFavorite(ctx context.Context, id, user string) ([]string, error)
}

// Offered reports whether a viewer may be shown the toggle at all.
// Anonymous viewers never are; callers check this before building a
// Controller.
func Offered(username string) bool {
	return strings.TrimSpace(username) != ""
}

// State is the viewer's favorite projection of one snippet.
type State struct {
	Favorited bool
	LikedBy   []string
	// InFlight is true while the newest toggle has not settled.
	InFlight bool
	// Err is the transient failure of the last settled toggle, cleared by
	// the next one.
	Err error
}

func (s State) clone() State {
	s.LikedBy = slices.Clone(s.LikedBy)
	return s
}

// Outcome says what settle did with a reply.
type Outcome int

const (
	// Applied: the newest toggle succeeded; LikedBy is now the server's.
	Applied Outcome = iota
	// Reverted: the newest toggle failed; state is back to before it.
	Reverted
	// Discarded: a newer toggle was issued; the reply was ignored.
	Discarded
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Reverted:
		return "reverted"
	case Discarded:
		return "discarded"
	}
	return "unknown"
}

// Result reports one toggle.
type Result struct {
	Token   uint64
	Outcome Outcome
	State   State // state after settle
}

// Controller owns the favorite state for one snippet and one viewer. It
// never reads or writes the session's draft.
type Controller struct {
	repo      Repository
	snippetID string
	username  string
	logger    *slog.Logger

	mu     sync.Mutex
	state  State
	latest uint64

	updates notify.Broadcaster[State]
}

// New seeds the controller from the loaded snippet. Favorited starts as
// the viewer's membership in LikedBy and is tracked separately from then on.
func New(repo Repository, snippet model.Snippet, username string, logger *slog.Logger) *Controller {
	return &Controller{
		repo:      repo,
		snippetID: snippet.ID,
		username:  username,
		logger:    logger,
		state: State{
			Favorited: snippet.LikedByUser(username),
			LikedBy:   slices.Clone(snippet.LikedBy),
		},
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers fn for every state change (begin and settle). fn runs
// with the controller locked and must not call back into it.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	return c.updates.Subscribe(fn)
}

// ticket is what begin hands to settle.
type ticket struct {
	token  uint64
	before State
	remove bool
}

// Toggle flips the favorite now and reconciles when the server answers.
// The error is non-nil only when this toggle was the newest and failed;
// the state has already been reverted by then.
func (c *Controller) Toggle(ctx context.Context) (Result, error) {
	t := c.begin()

	var (
		likedBy []string
		err     error
	)
	if t.remove {
		likedBy, err = c.repo.RemoveFavorite(ctx, c.snippetID, c.username)
	} else {
		likedBy, err = c.repo.AddFavorite(ctx, c.snippetID, c.username)
	}

	return c.settle(t, likedBy, err)
}

// begin applies the optimistic flip and stamps a new token.
func (c *Controller) begin() ticket {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.latest++
	t := ticket{
		token:  c.latest,
		before: c.state.clone(),
		remove: c.state.Favorited,
	}
	t.before.InFlight = false
	t.before.Err = nil

	if t.remove {
		c.state.LikedBy = slices.DeleteFunc(slices.Clone(c.state.LikedBy), func(u string) bool {
			return u == c.username
		})
	} else if !slices.Contains(c.state.LikedBy, c.username) {
		c.state.LikedBy = append(slices.Clone(c.state.LikedBy), c.username)
	}
	c.state.Favorited = !t.remove
	c.state.InFlight = true
	c.state.Err = nil

	c.updates.Publish(c.state.clone())
	return t
}

// settle reconciles the reply for t.
func (c *Controller) settle(t ticket, likedBy []string, err error) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.token != c.latest {
		c.logger.Debug("stale favorite reply discarded",
			slog.String("id", c.snippetID),
			slog.Uint64("token", t.token),
			slog.Uint64("latest", c.latest),
		)
		return Result{Token: t.token, Outcome: Discarded, State: c.state.clone()}, nil
	}

	if err != nil {
		c.state = t.before
		c.state.Err = err
		c.updates.Publish(c.state.clone())

		c.logger.Warn("favorite toggle reverted",
			slog.String("id", c.snippetID),
			slog.String("user", c.username),
			slog.String("error", err.Error()),
		)
		return Result{Token: t.token, Outcome: Reverted, State: c.state.clone()},
			fmt.Errorf("favorite: toggling %s: %w", c.snippetID, err)
	}

	c.state.LikedBy = slices.Clone(likedBy)
	c.state.InFlight = false
	c.updates.Publish(c.state.clone())

	c.logger.Info("favorite toggled",
		slog.String("id", c.snippetID),
		slog.String("user", c.username),
		slog.Bool("favorited", c.state.Favorited),
	)
	return Result{Token: t.token, Outcome: Applied, State: c.state.clone()}, nil
}

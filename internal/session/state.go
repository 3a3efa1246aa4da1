package session

import (
	"github.com/victorlut/cheathub/internal/apperror"
	"github.com/victorlut/cheathub/internal/model"
)

// Mode says whether the draft describes a new or an existing snippet.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeEdit:
		return "edit"
	}
	return "unknown"
}

// Phase is where the session is in its lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSubmitting
	PhaseDeleting
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSubmitting:
		return "submitting"
	case PhaseDeleting:
		return "deleting"
	case PhaseError:
		return "error"
	}
	return "unknown"
}

// Settled reports whether no operation is in flight. Error is settled so
// the user can retry.
func (p Phase) Settled() bool {
	return p == PhaseIdle || p == PhaseError
}

// Snapshot is an immutable view of the session, published after every
// transition.
type Snapshot struct {
	Mode                Mode
	Phase               Phase
	Draft               model.Draft
	Basis               *model.Snippet // last server copy; nil before the first load or create
	PendingConfirmation bool
	Err                 error // last error, validation included
	Closed              bool
}

// ErrorMessage is the displayable form of Err.
func (s Snapshot) ErrorMessage() string {
	return apperror.Message(s.Err)
}

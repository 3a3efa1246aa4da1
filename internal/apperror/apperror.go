// Package apperror defines the error taxonomy shared by the server and the
// client-side snippet controllers.
//
// Every error that crosses a layer boundary is an *AppError wrapping one of
// the sentinels below, so callers branch with errors.Is no matter how many
// times the error was wrapped with fmt.Errorf("...: %w", err) on the way up.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation error")
	ErrConflict         = errors.New("conflict")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNetwork          = errors.New("network error")
	ErrAlreadyFavorited = errors.New("already favorited")
	ErrNotFavorited     = errors.New("not favorited")
)

type AppError struct {
	Err     error  // sentinel from the list above
	Message string // Human-readable error message
	Field   string // Optional: field(s) causing the error, comma separated
	Cause   error  // Optional: underlying transport/driver error
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the underlying cause so errors.Is
// matches either of them.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// MissingFields reports every required field that was left empty.
func MissingFields(fields ...string) *AppError {
	joined := strings.Join(fields, ", ")
	return &AppError{
		Err:     ErrValidation,
		Message: fmt.Sprintf("missing required fields: %s", joined),
		Field:   joined,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is returned when a request needs an identity and has none.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Network wraps a transport or availability failure.
func Network(message string, cause error) *AppError {
	return &AppError{
		Err:     ErrNetwork,
		Message: message,
		Cause:   cause,
	}
}

func AlreadyFavorited(id, username string) *AppError {
	return &AppError{
		Err:     ErrAlreadyFavorited,
		Message: fmt.Sprintf("snippet %s is already a favorite of %s", id, username),
	}
}

func NotFavorited(id, username string) *AppError {
	return &AppError{
		Err:     ErrNotFavorited,
		Message: fmt.Sprintf("snippet %s is not a favorite of %s", id, username),
	}
}

// Message returns the displayable text for err: the AppError message when
// there is one, otherwise err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

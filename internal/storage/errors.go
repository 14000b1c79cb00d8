package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the addressed entity (or a parent entity the
	// operation depends on) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the acting identity is not the owner of the
	// addressed entity. The entity is left unchanged.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyInPlaylist indicates a playlist add for a video id that is
	// already a member.
	ErrAlreadyInPlaylist = errors.New("video already in playlist")

	// ErrNotInPlaylist indicates a playlist remove for a video id that is
	// not a member.
	ErrNotInPlaylist = errors.New("video not in playlist")

	// ErrSelfSubscription indicates an attempt to subscribe to one's own
	// channel.
	ErrSelfSubscription = errors.New("cannot subscribe to your own channel")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")

	// ErrUnavailable indicates the backing store could not be reached or
	// timed out before completing the operation.
	ErrUnavailable = errors.New("datastore unavailable")
)

// ValidationError reports a payload field that failed validation before any
// store mutation took place.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func validationErrorf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Package apperr defines the error kinds surfaced to users of the
// vocabulary dashboard. Callers classify errors with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation means the caller supplied invalid input
	ErrValidation = errors.New("invalid input")
	// ErrNotFound means a referenced entity is absent
	ErrNotFound = errors.New("not found")
	// ErrNoCandidates means a quiz was requested for filters matching no words
	ErrNoCandidates = errors.New("no words available for quiz")
	// ErrInvalidState means an action is not allowed in the current quiz state
	ErrInvalidState = errors.New("invalid quiz state")
	// ErrStore means the persistence or identity collaborator failed
	ErrStore = errors.New("store unavailable")
	// ErrNotAuthenticated is reported as a store error when no user is signed in
	ErrNotAuthenticated = errors.New("user not authenticated")
)

// Validation returns an ErrValidation with a formatted message
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound returns an ErrNotFound naming the missing entity
func NotFound(entity, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, entity, id)
}

// InvalidState returns an ErrInvalidState with a formatted message
func InvalidState(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// Store wraps a collaborator failure for operation op
func Store(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", ErrStore, op, err)
}

// UserMessage renders err for display to the end user
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotAuthenticated):
		return "Please sign in first."
	case errors.Is(err, ErrStore):
		return "Something went wrong while saving your data. Please try again."
	case errors.Is(err, ErrNoCandidates):
		return "No words available for quiz. Please add some words first!"
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidState):
		return capitalize(err.Error())
	default:
		return "Unexpected error. Please try again."
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

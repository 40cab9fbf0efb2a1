package services

import (
	"errors"
	"strings"
)

// Domain error categories. Services wrap these with context via
// fmt.Errorf("...: %w", ...); handlers map them to HTTP statuses with
// errors.Is at the request boundary.
var (
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates a missing or invalid credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates a missing entity. Also returned when an entity
	// exists but the requester may not see it, to avoid leaking existence.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a duplicate vote or registration. The storage
	// layer's unique constraints are the source of truth for this category.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState indicates an operation against an entity in the wrong
	// lifecycle state, e.g. voting on an unpublished poll.
	ErrInvalidState = errors.New("invalid state")
)

// isUniqueViolation reports whether err is a sqlite unique-constraint
// failure, the losing side of a write race.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrConflict is returned when a write violates a uniqueness constraint,
	// such as a second open work session for the same user.
	ErrConflict = errors.New("persistence: conflict")
)

package store

import "errors"

var (
	// ErrNotFound is returned when a referenced task or activity is absent.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when an insert would duplicate an identifier.
	ErrConflict = errors.New("store: conflict")
)

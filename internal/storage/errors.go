package storage

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a uniqueness violation on create. Recoverable:
	// the caller re-fetches and uses the record that won the race.
	ErrDuplicate = errors.New("duplicate record")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

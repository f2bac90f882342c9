package session

import "errors"

// Session errors.
var (
	// ErrNotFound is returned when a session does not exist in the store
	// or a typed value lookup misses.
	ErrNotFound = errors.New("session: not found")

	// ErrInvalidated is returned by attribute access on a session that has
	// been invalidated.
	ErrInvalidated = errors.New("session: invalidated")

	// ErrTypeMismatch is returned by Value when the stored value has a
	// different type than requested.
	ErrTypeMismatch = errors.New("session: type mismatch")

	// ErrClosed is returned when an operation is attempted on a closed store.
	ErrClosed = errors.New("session: store closed")

	// ErrMarshal is returned when a session cannot be encoded or decoded.
	ErrMarshal = errors.New("session: marshal failed")
)

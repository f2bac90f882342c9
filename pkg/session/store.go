package session

import "context"

// Store defines session persistence between exchanges.
// A store is the only part of the session model shared across dispatches.
type Store interface {
	// Get retrieves a session by its identifier.
	// Returns ErrNotFound if the session doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Save persists the session, creating or replacing it.
	// If the session was re-identified, the entry under PreviousID is removed.
	Save(ctx context.Context, s *Session) error

	// Delete removes a session by its identifier.
	Delete(ctx context.Context, id string) error
}

package session

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxInactiveInterval is the inactivity window assigned to new sessions.
const DefaultMaxInactiveInterval = 1800 * time.Second

// Session is the per-exchange session entry: an identity plus an attribute map.
// Expiry is not enforced here; MaxInactiveInterval is carried as metadata and
// used by stores as the persistence TTL.
type Session struct {
	CreatedAt           time.Time      `json:"created_at"`
	LastActiveAt        time.Time      `json:"last_active_at"`
	Values              map[string]any `json:"values"`
	ID                  string         `json:"id"`
	MaxInactiveInterval time.Duration  `json:"max_inactive_interval"`
	Invalidated         bool           `json:"invalidated"`

	previousID string
	dirty      bool
	isNew      bool
}

// NewID returns a fresh random session identifier.
func NewID() string {
	return uuid.NewString()
}

// New creates a session with a generated identifier.
func New() *Session {
	return NewWithID(NewID())
}

// NewWithID creates a session with the given identifier.
func NewWithID(id string) *Session {
	now := time.Now()
	return &Session{
		ID:                  id,
		Values:              make(map[string]any),
		CreatedAt:           now,
		LastActiveAt:        now,
		MaxInactiveInterval: DefaultMaxInactiveInterval,
		isNew:               true,
		dirty:               true,
	}
}

// Get returns the value stored under key, or nil if absent.
func (s *Session) Get(key string) (any, error) {
	if s.Invalidated {
		return nil, ErrInvalidated
	}
	return s.Values[key], nil
}

// Set stores val under key. A nil value removes the key.
func (s *Session) Set(key string, val any) error {
	if s.Invalidated {
		return ErrInvalidated
	}
	if val == nil {
		return s.Delete(key)
	}
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	s.Values[key] = val
	s.dirty = true
	return nil
}

// Delete removes key. Marks the session dirty only if the key existed.
func (s *Session) Delete(key string) error {
	if s.Invalidated {
		return ErrInvalidated
	}
	if _, ok := s.Values[key]; ok {
		delete(s.Values, key)
		s.dirty = true
	}
	return nil
}

// Keys returns the attribute names in sorted order.
func (s *Session) Keys() ([]string, error) {
	if s.Invalidated {
		return nil, ErrInvalidated
	}
	return slices.Sorted(maps.Keys(s.Values)), nil
}

// Invalidate clears all attributes and marks the session unusable.
func (s *Session) Invalidate() error {
	if s.Invalidated {
		return ErrInvalidated
	}
	clear(s.Values)
	s.Invalidated = true
	s.dirty = true
	return nil
}

// RegenerateID replaces the identifier with a fresh one and returns it.
// The old identifier is remembered until ClearDirty so a store can drop it.
func (s *Session) RegenerateID() (string, error) {
	if s.Invalidated {
		return "", ErrInvalidated
	}
	if s.previousID == "" {
		s.previousID = s.ID
	}
	s.ID = NewID()
	s.dirty = true
	return s.ID, nil
}

// PreviousID returns the identifier the session had before RegenerateID.
func (s *Session) PreviousID() string {
	return s.previousID
}

// Touch records an access.
func (s *Session) Touch(now time.Time) {
	s.LastActiveAt = now
	s.dirty = true
}

// SetMaxInactiveInterval changes the inactivity window.
func (s *Session) SetMaxInactiveInterval(d time.Duration) {
	s.MaxInactiveInterval = d
	s.dirty = true
}

// IsDirty returns true if the session has unsaved changes.
func (s *Session) IsDirty() bool {
	return s.dirty
}

// ClearDirty marks the session as persisted.
func (s *Session) ClearDirty() {
	s.dirty = false
	s.previousID = ""
}

// IsNew returns true until the session has been persisted once.
func (s *Session) IsNew() bool {
	return s.isNew
}

// ClearNew marks the session as no longer new.
func (s *Session) ClearNew() {
	s.isNew = false
}

// Value is a typed helper to retrieve session values.
func Value[T any](s *Session, key string) (T, error) {
	var zero T
	if s == nil {
		return zero, ErrNotFound
	}

	val, err := s.Get(key)
	if err != nil {
		return zero, err
	}
	if val == nil {
		return zero, ErrNotFound
	}

	typed, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("%w for key: %s", ErrTypeMismatch, key)
	}
	return typed, nil
}

// ValueOr returns the typed value or defaultVal on any failure.
func ValueOr[T any](s *Session, key string, defaultVal T) T {
	val, err := Value[T](s, key)
	if err != nil {
		return defaultVal
	}
	return val
}

package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	expiresAt time.Time // zero value = never expires
	sess      Session
}

func (e *memoryEntry) isExpired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore keeps sessions in process memory.
// Entries expire after their MaxInactiveInterval; a background janitor
// removes them when a cleanup interval is configured.
type MemoryStore struct {
	items map[string]*memoryEntry
	done  chan struct{}
	mu    sync.Mutex

	cleanupInterval time.Duration
	closed          bool
}

// MemoryOption configures the in-memory store.
type MemoryOption func(*MemoryStore)

// WithCleanupInterval sets how often expired sessions are removed.
// Zero disables the janitor. Default: 1 minute.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(m *MemoryStore) {
		if d >= 0 {
			m.cleanupInterval = d
		}
	}
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		items:           make(map[string]*memoryEntry),
		done:            make(chan struct{}),
		cleanupInterval: time.Minute,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cleanupInterval > 0 {
		go m.janitor()
	}
	return m
}

// Get returns a copy of the stored session.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	e, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if e.isExpired(time.Now()) {
		delete(m.items, id)
		return nil, ErrNotFound
	}

	return e.sess.clone(), nil
}

// Save stores a copy of the session.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if prev := s.PreviousID(); prev != "" {
		delete(m.items, prev)
	}

	var expiresAt time.Time
	if s.MaxInactiveInterval > 0 {
		expiresAt = time.Now().Add(s.MaxInactiveInterval)
	}
	m.items[s.ID] = &memoryEntry{sess: *s.clone(), expiresAt: expiresAt}
	return nil
}

// Delete removes a session.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.items, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close stops the janitor. Close is idempotent.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	return nil
}

func (m *MemoryStore) janitor() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.deleteExpired()
		}
	}
}

func (m *MemoryStore) deleteExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for id, e := range m.items {
		if e.isExpired(now) {
			delete(m.items, id)
		}
	}
}

// clone copies the session so stored entries never alias a live exchange.
// Values are copied shallowly.
func (s *Session) clone() *Session {
	c := *s
	c.Values = make(map[string]any, len(s.Values))
	for k, v := range s.Values {
		c.Values[k] = v
	}
	c.dirty = false
	c.isNew = false
	c.previousID = ""
	return &c
}

var _ Store = (*MemoryStore)(nil)

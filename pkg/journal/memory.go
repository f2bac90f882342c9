package journal

import (
	"context"
	"sync"
)

// DefaultMemoryCapacity is the number of entries Memory keeps when created
// with a non-positive capacity.
const DefaultMemoryCapacity = 256

// Memory keeps the most recent entries in a fixed-size ring.
type Memory struct {
	entries []Entry
	next    int
	full    bool
	mu      sync.Mutex
}

// NewMemory creates a ring recorder holding up to capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{entries: make([]Entry, capacity)}
}

func (m *Memory) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[m.next] = e
	m.next = (m.next + 1) % len(m.entries)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// Entries returns the retained entries, oldest first.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.full {
		out := make([]Entry, m.next)
		copy(out, m.entries[:m.next])
		return out
	}
	out := make([]Entry, 0, len(m.entries))
	out = append(out, m.entries[m.next:]...)
	return append(out, m.entries[:m.next]...)
}

// Len returns the number of retained entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.full {
		return len(m.entries)
	}
	return m.next
}

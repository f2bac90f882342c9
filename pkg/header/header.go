package header

import (
	"net/http"
	"slices"
	"strings"
)

// Store is a case-insensitive, multi-valued header container.
// Names are reported in the order they were first registered, using the
// casing of that first registration.
//
// The zero value is ready to use. A Store is owned by a single request or
// response and is not safe for concurrent use.
type Store struct {
	values map[string][]string
	names  []string
}

// New creates an empty Store.
func New() *Store {
	return &Store{values: make(map[string][]string)}
}

// FromHTTP builds a Store from an http.Header.
// Iteration order of the source map is not defined, so names are sorted
// to keep the result deterministic.
func FromHTTP(h http.Header) *Store {
	s := New()
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		for _, v := range h[k] {
			s.Add(k, v)
		}
	}
	return s
}

func key(name string) string {
	return strings.ToLower(name)
}

// Set replaces all values of name with value.
func (s *Store) Set(name, value string) {
	s.register(name)
	s.values[key(name)] = []string{value}
}

// Add appends value to the values of name.
func (s *Store) Add(name, value string) {
	s.register(name)
	k := key(name)
	s.values[k] = append(s.values[k], value)
}

// Get returns the first value of name.
func (s *Store) Get(name string) (string, bool) {
	vs := s.values[key(name)]
	if len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Value returns the first value of name or an empty string.
func (s *Store) Value(name string) string {
	v, _ := s.Get(name)
	return v
}

// Values returns a copy of all values of name in insertion order.
// Returns an empty slice when the header is absent.
func (s *Store) Values(name string) []string {
	vs := s.values[key(name)]
	if len(vs) == 0 {
		return []string{}
	}
	return slices.Clone(vs)
}

// Has reports whether name has at least one value.
func (s *Store) Has(name string) bool {
	_, ok := s.values[key(name)]
	return ok
}

// Del removes all values of name.
func (s *Store) Del(name string) {
	k := key(name)
	if _, ok := s.values[k]; !ok {
		return
	}
	delete(s.values, k)
	s.names = slices.DeleteFunc(s.names, func(n string) bool {
		return key(n) == k
	})
}

// Names returns all registered names in first-registration order.
func (s *Store) Names() []string {
	return slices.Clone(s.names)
}

// Len returns the number of distinct names.
func (s *Store) Len() int {
	return len(s.names)
}

// Reset removes every header.
func (s *Store) Reset() {
	s.values = make(map[string][]string)
	s.names = nil
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	c := New()
	c.names = slices.Clone(s.names)
	for k, vs := range s.values {
		c.values[k] = slices.Clone(vs)
	}
	return c
}

// HTTP returns the headers as an http.Header with canonical keys.
func (s *Store) HTTP() http.Header {
	h := make(http.Header, len(s.names))
	for _, n := range s.names {
		h[http.CanonicalHeaderKey(n)] = slices.Clone(s.values[key(n)])
	}
	return h
}

func (s *Store) register(name string) {
	if s.values == nil {
		s.values = make(map[string][]string)
	}
	if _, ok := s.values[key(name)]; !ok {
		s.names = append(s.names, name)
	}
}

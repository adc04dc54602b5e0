package rules

import (
	"sync"

	"gitlab.com/tozd/go/errors"
)

const (
	DefaultSetName = "新規設定"
	DefaultRows    = 10
	DefaultPrefix  = "列"
	NewSetRows     = 15
	NewSetPrefix   = "項目"
)

var ErrNotFound = errors.Base("rule set not found")

// Store maps rule-set names to rule sets for the lifetime of the process.
// Get and Put copy, so callers never share a RuleSet with the store.
type Store struct {
	mu    sync.RWMutex
	names []string
	sets  map[string]RuleSet
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{sets: make(map[string]RuleSet)}
}

// NewDefaultStore returns a store holding the starter rule set.
func NewDefaultStore() *Store {
	s := NewStore()
	s.Put(DefaultSetName, NewBlank(DefaultRows, DefaultPrefix))
	return s
}

// Names returns the rule-set names in creation order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of rule sets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.names)
}

// Get returns a snapshot of the named rule set.
func (s *Store) Get(name string) (RuleSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.sets[name]
	if !ok {
		return nil, false
	}
	return set.Clone(), true
}

// MustGet is Get with ErrNotFound for a missing name.
func (s *Store) MustGet(name string) (RuleSet, error) {
	set, ok := s.Get(name)
	if !ok {
		return nil, errors.Errorf("%w: %q", ErrNotFound, name)
	}
	return set, nil
}

// Put creates or replaces the named rule set.
func (s *Store) Put(name string, set RuleSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sets[name]; !exists {
		s.names = append(s.names, name)
	}
	s.sets[name] = set.Clone()
}

// Ensure creates a blank rule set for name unless one exists, and reports
// whether it created one.
func (s *Store) Ensure(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sets[name]; exists {
		return false
	}
	s.names = append(s.names, name)
	s.sets[name] = NewBlank(NewSetRows, NewSetPrefix)
	return true
}

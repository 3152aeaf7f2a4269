package quota

import (
	"sync"
	"time"

	"github.com/doowtsen/cpa-quota-dashboard/internal/models"
)

// Entry pairs a display key with its stored result.
type Entry struct {
	Key    string
	Result models.QuotaResult
}

// Store accumulates quota results per provider as queries complete,
// independently of rendering. Iteration order is insertion order; a repeat
// fetch for an existing key updates the value in place, preserving the
// original position. Reset replaces all three provider maps atomically.
type Store struct {
	mu      sync.RWMutex
	results map[models.ProviderKind]*orderedResults
	updated time.Time
}

type orderedResults struct {
	keys   []string
	values map[string]models.QuotaResult
}

// NewStore creates an empty result store.
func NewStore() *Store {
	return &Store{results: make(map[models.ProviderKind]*orderedResults)}
}

// Set stores or overwrites the result for a (provider, key) pair.
func (s *Store) Set(kind models.ProviderKind, key string, res models.QuotaResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	or := s.results[kind]
	if or == nil {
		or = &orderedResults{values: make(map[string]models.QuotaResult)}
		s.results[kind] = or
	}
	if _, exists := or.values[key]; !exists {
		or.keys = append(or.keys, key)
	}
	or.values[key] = res
	s.updated = time.Now()
}

// Entries returns the stored results for a provider in insertion order.
func (s *Store) Entries(kind models.ProviderKind) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	or := s.results[kind]
	if or == nil {
		return nil
	}
	entries := make([]Entry, 0, len(or.keys))
	for _, k := range or.keys {
		entries = append(entries, Entry{Key: k, Result: or.values[k]})
	}
	return entries
}

// Len returns the number of stored results for a provider.
func (s *Store) Len(kind models.ProviderKind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	or := s.results[kind]
	if or == nil {
		return 0
	}
	return len(or.keys)
}

// Reset clears all providers at once; no partial-clear state is observable.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = make(map[models.ProviderKind]*orderedResults)
	s.updated = time.Now()
}

// UpdatedAt returns the time of the last store mutation.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}

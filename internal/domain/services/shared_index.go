package services

import (
	"sync"

	"github.com/ersonp/mythos/internal/domain/entities"
)

// NameLookup is the read side of the name index.
type NameLookup interface {
	FindEntitiesByName(query string, opts FindOptions) []EntityMatch
	GetAlternateNames(entityID string) []string
	ExpandSearchTerms(term string, opts ExpandOptions) []string
	Entity(id string) (entities.EntityRef, bool)
	Stats() entities.IndexStats
}

var (
	_ NameLookup = (*NameVariantIndex)(nil)
	_ NameLookup = (*SharedIndex)(nil)
)

// SharedIndex guards a NameVariantIndex for hosts that answer lookups while
// another goroutine rebuilds it.
type SharedIndex struct {
	mu    sync.RWMutex
	index *NameVariantIndex
}

// NewSharedIndex wraps index. The caller must not use index directly afterwards.
func NewSharedIndex(index *NameVariantIndex) *SharedIndex {
	return &SharedIndex{index: index}
}

// FindEntitiesByName runs a lookup under the read lock.
func (s *SharedIndex) FindEntitiesByName(query string, opts FindOptions) []EntityMatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.FindEntitiesByName(query, opts)
}

// GetAlternateNames runs a reverse lookup under the read lock.
func (s *SharedIndex) GetAlternateNames(entityID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.GetAlternateNames(entityID)
}

// ExpandSearchTerms expands a term under the read lock.
func (s *SharedIndex) ExpandSearchTerms(term string, opts ExpandOptions) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.ExpandSearchTerms(term, opts)
}

// Entity returns the indexed reference for id.
func (s *SharedIndex) Entity(id string) (entities.EntityRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Entity(id)
}

// Stats reports the index size.
func (s *SharedIndex) Stats() entities.IndexStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Stats()
}

// Rebuild clears the index and calls fill with exclusive access. Lookups
// block until fill returns. The error from fill is passed through; the
// index keeps whatever fill managed to add.
func (s *SharedIndex) Rebuild(fill func(*NameVariantIndex) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index.Clear()
	return fill(s.index)
}

package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/ersonp/mythos/internal/domain/entities"
)

// EntitySource is an in-memory mock implementation of ports.EntitySource.
// Items maps category to ref to records. It is safe for concurrent Fetch calls.
type EntitySource struct {
	Items map[string]map[string][]entities.EntityRecord

	CategoriesErr error
	ManifestErrs  map[string]error // Keyed by category
	FetchErrs     map[string]error // Keyed by ref

	// Block, when set, makes Fetch wait until it is closed or the context ends.
	Block chan struct{}

	mu             sync.Mutex
	FetchCallCount int
}

// Categories returns the configured categories in sorted order.
func (m *EntitySource) Categories(_ context.Context) ([]string, error) {
	if m.CategoriesErr != nil {
		return nil, m.CategoriesErr
	}
	cats := make([]string, 0, len(m.Items))
	for c := range m.Items {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats, nil
}

// Manifest returns the refs of a category in sorted order.
func (m *EntitySource) Manifest(_ context.Context, category string) ([]string, error) {
	if err := m.ManifestErrs[category]; err != nil {
		return nil, err
	}
	refs := make([]string, 0, len(m.Items[category]))
	for ref := range m.Items[category] {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs, nil
}

// Fetch returns the records of one item.
func (m *EntitySource) Fetch(ctx context.Context, category, ref string) ([]entities.EntityRecord, error) {
	m.mu.Lock()
	m.FetchCallCount++
	m.mu.Unlock()

	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err := m.FetchErrs[ref]; err != nil {
		return nil, err
	}
	records := m.Items[category][ref]
	return append([]entities.EntityRecord(nil), records...), nil
}

// FetchCalls returns the number of Fetch calls so far.
func (m *EntitySource) FetchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FetchCallCount
}

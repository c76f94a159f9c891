package mocks

import (
	"context"
	"sort"

	"github.com/ersonp/mythos/internal/domain/entities"
)

// EntityStore is an in-memory mock implementation of ports.EntityStore.
type EntityStore struct {
	Records map[string]entities.EntityRecord
	Runs    []entities.LoadRun
	Err     error

	// Call tracking
	SaveBatchCallCount   int
	SaveBatchLastRecords []entities.EntityRecord
	RecordLoadRunCount   int
	LastRunSource        string
	Closed               bool
}

// NewEntityStore returns a store holding the given records.
func NewEntityStore(records ...entities.EntityRecord) *EntityStore {
	m := &EntityStore{Records: make(map[string]entities.EntityRecord)}
	for _, r := range records {
		m.Records[r.ID] = r
	}
	return m
}

func (m *EntityStore) ensure() {
	if m.Records == nil {
		m.Records = make(map[string]entities.EntityRecord)
	}
}

// EnsureSchema returns the configured error.
func (m *EntityStore) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close marks the store closed.
func (m *EntityStore) Close() error {
	m.Closed = true
	return nil
}

// SaveEntity stores one record.
func (m *EntityStore) SaveEntity(_ context.Context, record *entities.EntityRecord) error {
	if m.Err != nil {
		return m.Err
	}
	m.ensure()
	m.Records[record.ID] = *record
	return nil
}

// SaveBatch stores several records.
func (m *EntityStore) SaveBatch(_ context.Context, records []entities.EntityRecord) error {
	m.SaveBatchCallCount++
	m.SaveBatchLastRecords = records
	if m.Err != nil {
		return m.Err
	}
	m.ensure()
	for _, r := range records {
		m.Records[r.ID] = r
	}
	return nil
}

// FindEntityByID returns the record or nil.
func (m *EntityStore) FindEntityByID(_ context.Context, id string) (*entities.EntityRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	r, ok := m.Records[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// ExistsByIDs reports which IDs are stored.
func (m *EntityStore) ExistsByIDs(_ context.Context, ids []string) (map[string]bool, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	exists := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := m.Records[id]; ok {
			exists[id] = true
		}
	}
	return exists, nil
}

// ListEntities lists records sorted by ID.
func (m *EntityStore) ListEntities(_ context.Context, category string, limit, offset int) ([]entities.EntityRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []entities.EntityRecord
	for _, id := range m.sortedIDs() {
		r := m.Records[id]
		if category != "" && r.Category != category {
			continue
		}
		out = append(out, r)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteEntity removes a record.
func (m *EntityStore) DeleteEntity(_ context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	delete(m.Records, id)
	return nil
}

// CountEntities returns the number of stored records.
func (m *EntityStore) CountEntities(_ context.Context) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.Records), nil
}

// RecordLoadRun appends a run summary.
func (m *EntityStore) RecordLoadRun(_ context.Context, source string, stats *entities.LoadStats) error {
	m.RecordLoadRunCount++
	m.LastRunSource = source
	if m.Err != nil {
		return m.Err
	}
	m.Runs = append([]entities.LoadRun{{
		ID:            stats.RunID,
		Source:        source,
		TotalEntities: stats.TotalEntities,
		TotalNames:    stats.TotalNames,
		Skipped:       stats.Skipped,
		Errors:        len(stats.Errors),
		DurationMS:    stats.Duration.Milliseconds(),
	}}, m.Runs...)
	return nil
}

// ListLoadRuns returns stored runs, newest first.
func (m *EntityStore) ListLoadRuns(_ context.Context, limit int) ([]entities.LoadRun, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if limit > 0 && len(m.Runs) > limit {
		return m.Runs[:limit], nil
	}
	return m.Runs, nil
}

// Categories lists the distinct record categories.
func (m *EntityStore) Categories(_ context.Context) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	seen := make(map[string]bool)
	var cats []string
	for _, id := range m.sortedIDs() {
		c := m.Records[id].Category
		if !seen[c] {
			seen[c] = true
			cats = append(cats, c)
		}
	}
	sort.Strings(cats)
	return cats, nil
}

// Manifest lists the IDs stored under a category.
func (m *EntityStore) Manifest(_ context.Context, category string) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var ids []string
	for _, id := range m.sortedIDs() {
		if m.Records[id].Category == category {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Fetch returns the record with ID ref.
func (m *EntityStore) Fetch(_ context.Context, _, ref string) ([]entities.EntityRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	r, ok := m.Records[ref]
	if !ok {
		return nil, nil
	}
	return []entities.EntityRecord{r}, nil
}

func (m *EntityStore) sortedIDs() []string {
	ids := make([]string, 0, len(m.Records))
	for id := range m.Records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

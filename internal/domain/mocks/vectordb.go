package mocks

import (
	"context"

	"github.com/ersonp/mythos/internal/domain/entities"
	"github.com/ersonp/mythos/internal/domain/ports"
)

// VectorDB is a mock implementation of ports.VectorDB.
type VectorDB struct {
	Vectors []entities.EntityVector
	Hits    []entities.VectorHit // Returned by Search as is
	Err     error

	// Call tracking
	SaveBatchCallCount   int
	SaveBatchLastVectors []entities.EntityVector
	SearchCallCount      int
	LastFilter           ports.VectorFilter
	LastLimit            int
	DeletedIDs           []string
}

// SaveBatch stores the vectors, replacing any with the same entity ID.
func (m *VectorDB) SaveBatch(_ context.Context, vectors []entities.EntityVector) error {
	m.SaveBatchCallCount++
	m.SaveBatchLastVectors = vectors
	if m.Err != nil {
		return m.Err
	}
	for _, v := range vectors {
		replaced := false
		for i := range m.Vectors {
			if m.Vectors[i].EntityID == v.EntityID {
				m.Vectors[i] = v
				replaced = true
				break
			}
		}
		if !replaced {
			m.Vectors = append(m.Vectors, v)
		}
	}
	return nil
}

// Search returns the configured hits, cut to limit.
func (m *VectorDB) Search(_ context.Context, _ []float32, filter ports.VectorFilter, limit int) ([]entities.VectorHit, error) {
	m.SearchCallCount++
	m.LastFilter = filter
	m.LastLimit = limit
	if m.Err != nil {
		return nil, m.Err
	}
	if limit > 0 && len(m.Hits) > limit {
		return m.Hits[:limit], nil
	}
	return m.Hits, nil
}

// Delete removes the vector of one entity.
func (m *VectorDB) Delete(_ context.Context, entityID string) error {
	m.DeletedIDs = append(m.DeletedIDs, entityID)
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Vectors {
		if m.Vectors[i].EntityID == entityID {
			m.Vectors = append(m.Vectors[:i], m.Vectors[i+1:]...)
			break
		}
	}
	return nil
}

// Count returns the number of stored vectors.
func (m *VectorDB) Count(_ context.Context) (uint64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return uint64(len(m.Vectors)), nil
}

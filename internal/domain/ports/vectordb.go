package ports

import (
	"context"

	"github.com/ersonp/mythos/internal/domain/entities"
)

// VectorFilter narrows a vector search. Empty fields are ignored.
type VectorFilter struct {
	Mythology string
	Type      string
}

// VectorDB stores entity embeddings for the broad search stage that runs
// after name expansion.
type VectorDB interface {
	// SaveBatch upserts entity vectors.
	SaveBatch(ctx context.Context, vectors []entities.EntityVector) error

	// Search returns the entities closest to the embedding.
	Search(ctx context.Context, embedding []float32, filter VectorFilter, limit int) ([]entities.VectorHit, error)

	// Delete removes the vector of one entity.
	Delete(ctx context.Context, entityID string) error

	// Count returns the number of stored vectors.
	Count(ctx context.Context) (uint64, error)
}

package ports

import "context"

// CollectionManager manages the lifecycle of the entity vector collection.
// Kept apart from VectorDB so test doubles and read-only deployments need
// not implement it.
type CollectionManager interface {
	// EnsureCollection creates the collection if it doesn't exist.
	EnsureCollection(ctx context.Context, vectorSize uint64) error

	// DeleteCollection removes the collection and all its vectors.
	DeleteCollection(ctx context.Context) error
}

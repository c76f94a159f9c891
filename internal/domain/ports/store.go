package ports

import (
	"context"

	"github.com/ersonp/mythos/internal/domain/entities"
)

// EntityStore persists source records so the index can be rebuilt from a
// database. It doubles as an EntitySource: categories are the stored
// category values and each manifest entry is a record ID.
type EntityStore interface {
	EntitySource

	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// SaveEntity saves or updates a record.
	SaveEntity(ctx context.Context, record *entities.EntityRecord) error

	// SaveBatch saves or updates several records in one transaction.
	SaveBatch(ctx context.Context, records []entities.EntityRecord) error

	// FindEntityByID finds a record by its ID. Returns nil if absent.
	FindEntityByID(ctx context.Context, id string) (*entities.EntityRecord, error)

	// ExistsByIDs reports which of the given IDs are stored.
	ExistsByIDs(ctx context.Context, ids []string) (map[string]bool, error)

	// ListEntities lists records, optionally restricted to one category.
	ListEntities(ctx context.Context, category string, limit, offset int) ([]entities.EntityRecord, error)

	// DeleteEntity deletes a record by ID.
	DeleteEntity(ctx context.Context, id string) error

	// CountEntities returns the number of stored records.
	CountEntities(ctx context.Context) (int, error)

	// RecordLoadRun stores the summary of an index load.
	RecordLoadRun(ctx context.Context, source string, stats *entities.LoadStats) error

	// ListLoadRuns returns the most recent load summaries, newest first.
	ListLoadRuns(ctx context.Context, limit int) ([]entities.LoadRun, error)
}

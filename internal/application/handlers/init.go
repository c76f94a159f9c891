// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ersonp/mythos/internal/domain/ports"
	"github.com/ersonp/mythos/internal/infrastructure/config"
	"github.com/ersonp/mythos/internal/infrastructure/relationaldb/sqlite"
)

// CollectionOpener connects to the vector store named by cfg. The returned
// func releases the connection.
type CollectionOpener func(cfg *config.Config, collection string) (ports.CollectionManager, func() error, error)

// InitHandler handles workspace initialization.
type InitHandler struct {
	openCollection CollectionOpener
	vectorSize     uint64
}

// NewInitHandler creates a new init handler. openCollection may be nil when
// vector search is not used.
func NewInitHandler(openCollection CollectionOpener, vectorSize uint64) *InitHandler {
	return &InitHandler{
		openCollection: openCollection,
		vectorSize:     vectorSize,
	}
}

// InitOptions controls initialization.
type InitOptions struct {
	Vectors bool // Create the Qdrant collection
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath     string
	DatabasePath   string
	CollectionName string // Empty unless the collection was created
}

// Handle writes the default config, creates the SQLite schema and, when
// requested, the vector collection.
func (h *InitHandler) Handle(ctx context.Context, basePath string, opts InitOptions) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("mythos already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	result := &InitResult{
		ConfigPath:   config.ConfigFilePath(basePath),
		DatabasePath: config.ResolvePath(basePath, cfg.SQLite.Path),
	}

	if err := ensureSchema(ctx, result.DatabasePath); err != nil {
		return nil, err
	}

	if opts.Vectors {
		if h.openCollection == nil {
			return nil, fmt.Errorf("vector store is not available")
		}
		collection := cfg.CollectionName(basePath)
		manager, closeFn, err := h.openCollection(cfg, collection)
		if err != nil {
			return nil, fmt.Errorf("connecting to vector store: %w", err)
		}
		defer closeFn() //nolint:errcheck // best effort on the way out

		if err := manager.EnsureCollection(ctx, h.vectorSize); err != nil {
			return nil, fmt.Errorf("creating collection: %w", err)
		}
		result.CollectionName = collection
	}

	return result, nil
}

func ensureSchema(ctx context.Context, dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: dbPath})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

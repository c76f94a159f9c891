package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/mythos/internal/domain/ports"
	"github.com/ersonp/mythos/internal/domain/services"
)

// SearchHandler runs broad searches and keeps the vector store in sync.
type SearchHandler struct {
	searchService     *services.SearchService
	store             ports.EntityStore
	collectionManager ports.CollectionManager
	vectorSize        uint64
}

// NewSearchHandler creates a new search handler. store and collectionManager
// are only needed by HandleSync.
func NewSearchHandler(searchService *services.SearchService, store ports.EntityStore, collectionManager ports.CollectionManager, vectorSize uint64) *SearchHandler {
	return &SearchHandler{
		searchService:     searchService,
		store:             store,
		collectionManager: collectionManager,
		vectorSize:        vectorSize,
	}
}

// Handle searches for entities matching the query.
func (h *SearchHandler) Handle(ctx context.Context, query string, opts services.SearchOptions) (*services.SearchResult, error) {
	result, err := h.searchService.Search(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("searching entities: %w", err)
	}
	return result, nil
}

// SyncResult contains the result of a vector sync.
type SyncResult struct {
	Records int
	Written int
}

// HandleSync embeds every stored record and upserts the vectors.
func (h *SearchHandler) HandleSync(ctx context.Context) (*SyncResult, error) {
	if h.store == nil {
		return nil, fmt.Errorf("no entity store configured")
	}

	records, err := h.store.ListEntities(ctx, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}

	if h.collectionManager != nil {
		if err := h.collectionManager.EnsureCollection(ctx, h.vectorSize); err != nil {
			return nil, fmt.Errorf("ensuring collection: %w", err)
		}
	}

	written, err := h.searchService.SyncVectors(ctx, records)
	if err != nil {
		return &SyncResult{Records: len(records), Written: written}, fmt.Errorf("syncing vectors: %w", err)
	}

	return &SyncResult{Records: len(records), Written: written}, nil
}

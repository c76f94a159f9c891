package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ersonp/mythos/internal/domain/entities"
	"github.com/ersonp/mythos/internal/domain/ports"
	"github.com/ersonp/mythos/internal/domain/services"
)

// LoadHandler fills the index from a source and records the run.
type LoadHandler struct {
	loader *services.LoaderService
	store  ports.EntityStore
	logger *slog.Logger
}

// NewLoadHandler creates a new load handler. store may be nil, in which case
// runs are not recorded.
func NewLoadHandler(loader *services.LoaderService, store ports.EntityStore, logger *slog.Logger) *LoadHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LoadHandler{
		loader: loader,
		store:  store,
		logger: logger,
	}
}

// LoadResult contains the result of a load.
type LoadResult struct {
	Source string              `json:"source"`
	Stats  *entities.LoadStats `json:"stats"`
	Errors []string            `json:"errors,omitempty"`
}

// Handle loads every requested category of src. sourceName labels the run
// in the store. Per-item failures are reported in the result, not as an error.
func (h *LoadHandler) Handle(ctx context.Context, src ports.EntitySource, sourceName string, opts services.LoadOptions) (*LoadResult, error) {
	stats, err := h.loader.LoadFromSource(ctx, src, opts)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{Source: sourceName, Stats: stats}
	for _, e := range stats.Errors {
		result.Errors = append(result.Errors, e.Error())
	}

	if h.store != nil {
		if err := h.store.RecordLoadRun(ctx, sourceName, stats); err != nil {
			// The index is loaded either way.
			h.logger.Warn("recording load run failed", slog.String("error", err.Error()))
		}
	}

	return result, nil
}

// HandleHistory returns the most recent recorded runs.
func (h *LoadHandler) HandleHistory(ctx context.Context, limit int) ([]entities.LoadRun, error) {
	if h.store == nil {
		return nil, fmt.Errorf("no entity store configured")
	}
	runs, err := h.store.ListLoadRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing load runs: %w", err)
	}
	return runs, nil
}

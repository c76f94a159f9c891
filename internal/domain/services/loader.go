package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ersonp/mythos/internal/domain/entities"
	"github.com/ersonp/mythos/internal/domain/ports"
)

// DefaultLoadWorkers is the default number of concurrent fetches.
const DefaultLoadWorkers = 4

// ErrNoSource is returned when a load is requested without a source.
var ErrNoSource = errors.New("no entity source configured")

// LoadOptions controls LoadFromSource.
type LoadOptions struct {
	Categories []string                // Categories to load (default: all the source lists)
	Workers    int                     // Concurrent fetches (default DefaultLoadWorkers)
	OnError    func(entities.LoadError) // Called for every per-item failure
}

// LoaderService fills a NameVariantIndex from an EntitySource. Fetches run
// concurrently; every index write happens on the goroutine that called
// LoadFromSource.
type LoaderService struct {
	index  *NameVariantIndex
	logger *slog.Logger
}

// NewLoaderService creates a loader for the given index.
func NewLoaderService(index *NameVariantIndex, logger *slog.Logger) *LoaderService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LoaderService{
		index:  index,
		logger: logger,
	}
}

// fetchJob is one manifest entry to fetch.
type fetchJob struct {
	category string
	ref      string
}

// fetchResult carries a fetched item back to the writer.
type fetchResult struct {
	fetchJob
	records []entities.EntityRecord
	err     error
}

func newLoadStats() *entities.LoadStats {
	return &entities.LoadStats{
		RunID:  uuid.New().String(),
		ByType: make(map[string]int),
	}
}

// LoadFromArray indexes in-memory records. It is a thin wrapper over the
// index so callers holding a LoaderService need not reach for the index.
func (s *LoaderService) LoadFromArray(records []entities.EntityRecord) *entities.LoadStats {
	start := time.Now()
	stats := s.index.LoadFromArray(records)
	stats.Duration = time.Since(start)
	s.logSummary("array", stats)
	return stats
}

// LoadFromSource reads every manifest of the requested categories and
// indexes the listed items. Failures to read a manifest or item are
// collected in the returned stats and do not stop the load. Only context
// cancellation or a failure to list categories aborts; whatever was indexed
// before that stays in the index.
func (s *LoaderService) LoadFromSource(ctx context.Context, src ports.EntitySource, opts LoadOptions) (*entities.LoadStats, error) {
	if src == nil {
		return nil, ErrNoSource
	}

	start := time.Now()
	stats := newLoadStats()

	categories := opts.Categories
	if len(categories) == 0 {
		var err error
		categories, err = src.Categories(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing categories: %w", err)
		}
	}

	jobs := s.collectJobs(ctx, src, categories, stats, opts)

	if err := s.fetchAndIndex(ctx, src, jobs, stats, opts); err != nil {
		stats.Duration = time.Since(start)
		return stats, fmt.Errorf("loading entities: %w", err)
	}

	s.index.markLoaded(stats)
	stats.Duration = time.Since(start)
	s.logSummary("source", stats)
	return stats, nil
}

// collectJobs reads the manifest of each category.
func (s *LoaderService) collectJobs(ctx context.Context, src ports.EntitySource, categories []string, stats *entities.LoadStats, opts LoadOptions) []fetchJob {
	var jobs []fetchJob
	for _, category := range categories {
		refs, err := src.Manifest(ctx, category)
		if err != nil {
			s.report(stats, opts, entities.LoadError{Category: category, Err: fmt.Errorf("reading manifest: %w", err)})
			continue
		}
		for _, ref := range refs {
			jobs = append(jobs, fetchJob{category: category, ref: ref})
		}
	}
	return jobs
}

// fetchAndIndex fetches jobs with bounded concurrency and indexes the
// results as they arrive.
func (s *LoaderService) fetchAndIndex(ctx context.Context, src ports.EntitySource, jobs []fetchJob, stats *entities.LoadStats, opts LoadOptions) error {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultLoadWorkers
	}

	results := make(chan fetchResult)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var fetchErr error
	go func() {
		defer close(results)
		for _, job := range jobs {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				records, err := src.Fetch(gctx, job.category, job.ref)
				select {
				case results <- fetchResult{fetchJob: job, records: records, err: err}:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		fetchErr = g.Wait()
	}()

	for res := range results {
		if res.err != nil {
			s.report(stats, opts, entities.LoadError{Category: res.category, Ref: res.ref, Err: res.err})
			continue
		}
		for i := range res.records {
			if res.records[i].Category == "" {
				res.records[i].Category = res.category
			}
		}
		s.index.ingest(res.records, stats)
	}

	if fetchErr != nil {
		return fetchErr
	}
	return ctx.Err()
}

func (s *LoaderService) report(stats *entities.LoadStats, opts LoadOptions, loadErr entities.LoadError) {
	stats.Errors = append(stats.Errors, loadErr)
	s.logger.Warn("load item failed",
		slog.String("category", loadErr.Category),
		slog.String("ref", loadErr.Ref),
		slog.String("error", loadErr.Err.Error()))
	if opts.OnError != nil {
		opts.OnError(loadErr)
	}
}

func (s *LoaderService) logSummary(kind string, stats *entities.LoadStats) {
	s.logger.Info("index_loaded",
		slog.String("kind", kind),
		slog.String("run_id", stats.RunID),
		slog.Int("entities", stats.TotalEntities),
		slog.Int("names", stats.TotalNames),
		slog.Int("skipped", stats.Skipped),
		slog.Int("errors", len(stats.Errors)),
		slog.Duration("duration", stats.Duration))
}

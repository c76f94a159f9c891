package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ersonp/mythos/internal/application/handlers"
	"github.com/ersonp/mythos/internal/domain/ports"
	"github.com/ersonp/mythos/internal/domain/services"
	"github.com/ersonp/mythos/internal/infrastructure/config"
	"github.com/ersonp/mythos/internal/infrastructure/embedder"
	"github.com/ersonp/mythos/internal/infrastructure/embedder/boltcache"
	"github.com/ersonp/mythos/internal/infrastructure/embedder/openai"
	"github.com/ersonp/mythos/internal/infrastructure/lock"
	"github.com/ersonp/mythos/internal/infrastructure/logging"
	"github.com/ersonp/mythos/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/mythos/internal/infrastructure/source"
	"github.com/ersonp/mythos/internal/infrastructure/vectordb/qdrant"
)

// embeddingCacheFile holds persisted embeddings inside the config directory.
const embeddingCacheFile = "embeddings.db"

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config   *config.Config
	BasePath string
	Logger   *slog.Logger

	Index         *services.SharedIndex
	LookupHandler *handlers.LookupHandler
	LoadResult    *handlers.LoadResult
}

// internalDeps holds all dependencies including low-level components.
// Used internally by helper functions.
type internalDeps struct {
	Deps
	store      *sqlite.Repository
	source     ports.EntitySource
	sourceName string
}

// loadConfig reads the project config and applies the global flags.
func loadConfig() (*config.Config, string, *slog.Logger, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", nil, fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.LoadOrDefault(cwd)
	if err != nil {
		return nil, "", nil, fmt.Errorf("loading config: %w", err)
	}

	if globalDataDir != "" {
		cfg.Data.Dir = globalDataDir
	}
	if globalSource != "" {
		cfg.Data.Source = globalSource
	}
	if globalLogLevel != "" {
		cfg.Logging.Level = globalLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.Setup(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	return cfg, cwd, logger, nil
}

// withStore provides the SQLite entity store without loading the index.
func withStore(fn func(*internalDeps) error) error {
	cfg, cwd, logger, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(context.Background(), cfg, cwd)
	if err != nil {
		return err
	}
	defer store.Close()

	src, name, err := buildSource(cfg, cwd, store)
	if err != nil {
		return err
	}

	return fn(&internalDeps{
		Deps: Deps{
			Config:   cfg,
			BasePath: cwd,
			Logger:   logger,
		},
		store:      store,
		source:     src,
		sourceName: name,
	})
}

// withDeps builds dependencies and fills the name index from the configured
// source, then calls the provided function. It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	return withInternalDeps(ctx, func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps provides access to all dependencies including low-level components.
func withInternalDeps(ctx context.Context, fn func(*internalDeps) error) error {
	return withStore(func(d *internalDeps) error {
		index := services.NewNameVariantIndex(d.Logger)
		loadHandler := handlers.NewLoadHandler(services.NewLoaderService(index, d.Logger), nil, d.Logger)

		result, err := loadHandler.Handle(ctx, d.source, d.sourceName, d.loadOptions())
		if err != nil {
			return fmt.Errorf("loading index: %w", err)
		}

		d.Index = services.NewSharedIndex(index)
		d.LookupHandler = handlers.NewLookupHandler(d.Index)
		d.LoadResult = result
		return fn(d)
	})
}

// withWriteLock holds the project lock while fn runs.
func withWriteLock(ctx context.Context, basePath string, fn func() error) error {
	l := lock.New(config.ConfigDir(basePath))
	if err := l.LockContext(ctx); err != nil {
		return err
	}
	defer l.Unlock() //nolint:errcheck // released on exit regardless

	return fn()
}

func (d *internalDeps) loadOptions() services.LoadOptions {
	return services.LoadOptions{
		Categories: d.Config.Data.Categories,
		Workers:    d.Config.Data.Workers,
	}
}

func openStore(ctx context.Context, cfg *config.Config, basePath string) (*sqlite.Repository, error) {
	dbPath := config.ResolvePath(basePath, cfg.SQLite.Path)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	store, err := sqlite.NewRepository(config.SQLiteConfig{Path: dbPath})
	if err != nil {
		return nil, fmt.Errorf("creating sqlite repository: %w", err)
	}

	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("ensuring sqlite schema: %w", err)
	}
	return store, nil
}

// buildSource returns the entity source named by data.source and a label
// for load history.
func buildSource(cfg *config.Config, basePath string, store *sqlite.Repository) (ports.EntitySource, string, error) {
	switch cfg.Data.Source {
	case config.SourceSQLite:
		return store, config.SourceSQLite, nil
	case config.SourceHTTP:
		var opts []source.HTTPOption
		if len(cfg.Data.Categories) > 0 {
			opts = append(opts, source.WithCategories(cfg.Data.Categories))
		}
		src, err := source.NewHTTPSource(cfg.Data.BaseURL, cfg.Data.Timeout, opts...)
		if err != nil {
			return nil, "", fmt.Errorf("creating http source: %w", err)
		}
		return src, cfg.Data.BaseURL, nil
	default:
		dir := config.ResolvePath(basePath, cfg.Data.Dir)
		return source.NewDirectorySource(dir), dir, nil
	}
}

// vectorDeps holds the optional semantic search stack.
type vectorDeps struct {
	repo     *qdrant.Repository
	embedder ports.Embedder
	closers  []func() error
}

func (v *vectorDeps) Close() {
	for i := len(v.closers) - 1; i >= 0; i-- {
		v.closers[i]() //nolint:errcheck // best effort on the way out
	}
}

// openVectors connects to Qdrant and builds the cached embedder. Embeddings
// are persisted in the config directory so repeated syncs skip the API.
func openVectors(cfg *config.Config, basePath string, logger *slog.Logger) (*vectorDeps, error) {
	inner, err := openai.NewEmbedder(cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	v := &vectorDeps{}

	qdrantCfg := cfg.Qdrant
	qdrantCfg.Collection = cfg.CollectionName(basePath)
	repo, err := qdrant.NewRepository(qdrantCfg)
	if err != nil {
		return nil, fmt.Errorf("creating qdrant repository: %w", err)
	}
	v.repo = repo
	v.closers = append(v.closers, repo.Close)

	cacheOpts := []embedder.Option{embedder.WithLogger(logger)}
	configDir := config.ConfigDir(basePath)
	if err := os.MkdirAll(configDir, 0755); err == nil {
		store, err := boltcache.NewStore(filepath.Join(configDir, embeddingCacheFile))
		if err != nil {
			logger.Warn("embedding cache unavailable", slog.String("error", err.Error()))
		} else {
			cacheOpts = append(cacheOpts, embedder.WithStore(store))
			v.closers = append(v.closers, store.Close)
		}
	}

	v.embedder = embedder.NewCachedEmbedder(inner, cfg.Embedder.CacheSize, cacheOpts...)
	return v, nil
}

// openCollection is the handlers.CollectionOpener used by init.
func openCollection(cfg *config.Config, collection string) (ports.CollectionManager, func() error, error) {
	qdrantCfg := cfg.Qdrant
	qdrantCfg.Collection = collection
	repo, err := qdrant.NewRepository(qdrantCfg)
	if err != nil {
		return nil, nil, err
	}
	return repo, repo.Close, nil
}

// withSearchHandler builds the search handler over a loaded index.
func withSearchHandler(ctx context.Context, fn func(*handlers.SearchHandler, *Deps) error) error {
	return withInternalDeps(ctx, func(d *internalDeps) error {
		v, err := openVectors(d.Config, d.BasePath, d.Logger)
		if err != nil {
			return err
		}
		defer v.Close()

		searchService := services.NewSearchService(d.Index, v.embedder, v.repo, d.Logger)
		handler := handlers.NewSearchHandler(searchService, d.store, v.repo, openai.VectorSize)
		return fn(handler, &d.Deps)
	})
}

// Package embedder wraps an Embedder with an in-memory LRU cache backed by an
// optional persistent store.
package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ersonp/mythos/internal/domain/ports"
)

// DefaultCacheSize is the default number of embeddings kept in memory.
const DefaultCacheSize = 256

// Store persists embeddings between runs.
type Store interface {
	Get(key string) ([]float32, bool, error)
	PutBatch(entries map[string][]float32) error
}

// Ensure CachedEmbedder implements the ports.Embedder interface.
var _ ports.Embedder = (*CachedEmbedder)(nil)

// CachedEmbedder avoids re-embedding texts it has seen. Lookups go to the
// LRU first, then to the store; misses are embedded and written to both.
// Store failures are logged and treated as misses.
type CachedEmbedder struct {
	inner  ports.Embedder
	cache  *lru.Cache[string, []float32]
	store  Store
	logger *slog.Logger
}

// Option configures a CachedEmbedder.
type Option func(*CachedEmbedder)

// WithStore adds a persistent layer below the LRU.
func WithStore(s Store) Option {
	return func(c *CachedEmbedder) { c.store = s }
}

// WithLogger sets the logger for store failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *CachedEmbedder) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCachedEmbedder wraps inner with an LRU of cacheSize entries.
func NewCachedEmbedder(inner ports.Embedder, cacheSize int, opts ...Option) *CachedEmbedder {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float32](cacheSize)
	c := &CachedEmbedder{
		inner:  inner,
		cache:  cache,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheKey is the SHA-256 of the text and model name.
func CacheKey(text, model string) string {
	hash := sha256.Sum256([]byte(text + "\x00" + model))
	return hex.EncodeToString(hash[:])
}

func (c *CachedEmbedder) cacheKey(text string) string {
	return CacheKey(text, c.inner.ModelName())
}

func (c *CachedEmbedder) lookup(key string) ([]float32, bool) {
	if vec, ok := c.cache.Get(key); ok {
		return vec, true
	}
	if c.store == nil {
		return nil, false
	}
	vec, ok, err := c.store.Get(key)
	if err != nil {
		c.logger.Warn("embedding cache read failed", slog.String("error", err.Error()))
		return nil, false
	}
	if ok {
		c.cache.Add(key, vec)
	}
	return vec, ok
}

func (c *CachedEmbedder) persist(entries map[string][]float32) {
	if c.store == nil || len(entries) == 0 {
		return
	}
	if err := c.store.PutBatch(entries); err != nil {
		c.logger.Warn("embedding cache write failed", slog.String("error", err.Error()))
	}
}

// Embed returns the cached embedding if available, otherwise computes and caches it.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)
	if vec, ok := c.lookup(key); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.Add(key, vec)
	c.persist(map[string][]float32{key: vec})
	return vec, nil
}

// EmbedBatch embeds only the texts missing from the cache, in one call.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		keys[i] = c.cacheKey(text)
		if vec, ok := c.lookup(keys[i]); ok {
			results[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	fresh, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(fresh), len(missTexts))
	}

	entries := make(map[string][]float32, len(fresh))
	for j, idx := range missIdx {
		results[idx] = fresh[j]
		c.cache.Add(keys[idx], fresh[j])
		entries[keys[idx]] = fresh[j]
	}
	c.persist(entries)

	return results, nil
}

// ModelName returns the model identifier of the wrapped embedder.
func (c *CachedEmbedder) ModelName() string {
	return c.inner.ModelName()
}

// Len reports the number of embeddings held in memory.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}

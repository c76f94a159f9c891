package embedder

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/mythos/internal/domain/mocks"
	"github.com/ersonp/mythos/internal/infrastructure/embedder/boltcache"
)

// memStore is an in-memory Store that can be made to fail.
type memStore struct {
	data   map[string][]float32
	getErr error
	putErr error
	puts   int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]float32)}
}

func (s *memStore) Get(key string) ([]float32, bool, error) {
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) PutBatch(entries map[string][]float32) error {
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	for k, v := range entries {
		s.data[k] = v
	}
	return nil
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey("Zeus", "m1"), CacheKey("Zeus", "m1"))
	assert.NotEqual(t, CacheKey("Zeus", "m1"), CacheKey("Zeus", "m2"))
	assert.NotEqual(t, CacheKey("Zeus", "m1"), CacheKey("Odin", "m1"))
	assert.Len(t, CacheKey("Zeus", "m1"), 64)
}

func TestCachedEmbedder_Embed(t *testing.T) {
	inner := &mocks.Embedder{EmbeddingResult: []float32{0.1, 0.2}}
	c := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	v1, err := c.Embed(ctx, "Zeus")
	require.NoError(t, err)
	v2, err := c.Embed(ctx, "Zeus")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, inner.EmbedCallCount)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "mock", c.ModelName())
}

func TestCachedEmbedder_Embed_Error(t *testing.T) {
	inner := &mocks.Embedder{Err: errors.New("rate limited")}
	c := NewCachedEmbedder(inner, 10)

	_, err := c.Embed(context.Background(), "Zeus")
	assert.EqualError(t, err, "rate limited")
	assert.Equal(t, 0, c.Len())
}

func TestCachedEmbedder_EmbedBatch_OnlyMisses(t *testing.T) {
	inner := &mocks.Embedder{EmbeddingResult: []float32{1}}
	c := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	_, err := c.Embed(ctx, "Zeus")
	require.NoError(t, err)

	vecs, err := c.EmbedBatch(ctx, []string{"Zeus", "Odin", "Ra"})
	require.NoError(t, err)
	assert.Len(t, vecs, 3)
	assert.Equal(t, []string{"Odin", "Ra"}, inner.LastTexts)

	_, err = c.EmbedBatch(ctx, []string{"Ra", "Odin"})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.EmbedBatchCallCount)
}

func TestCachedEmbedder_EmbedBatch_Empty(t *testing.T) {
	c := NewCachedEmbedder(&mocks.Embedder{}, 0)

	vecs, err := c.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func TestCachedEmbedder_ModelChangesKey(t *testing.T) {
	inner := &mocks.Embedder{EmbeddingResult: []float32{1}, Model: "a"}
	c := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	_, err := c.Embed(ctx, "Zeus")
	require.NoError(t, err)
	inner.Model = "b"
	_, err = c.Embed(ctx, "Zeus")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.EmbedCallCount)
}

func TestCachedEmbedder_Store(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	first := NewCachedEmbedder(&mocks.Embedder{EmbeddingResult: []float32{0.5}}, 10, WithStore(store))
	_, err := first.EmbedBatch(ctx, []string{"Zeus", "Odin"})
	require.NoError(t, err)
	assert.Len(t, store.data, 2)
	assert.Equal(t, 1, store.puts)

	// A fresh LRU is filled from the store.
	inner := &mocks.Embedder{EmbeddingResult: []float32{9}}
	second := NewCachedEmbedder(inner, 10, WithStore(store))
	vec, err := second.Embed(ctx, "Odin")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5}, vec)
	assert.Equal(t, 0, inner.EmbedCallCount)
	assert.Equal(t, 1, second.Len())
}

func TestCachedEmbedder_StoreFailuresAreMisses(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("disk gone")
	store.putErr = errors.New("disk gone")

	inner := &mocks.Embedder{EmbeddingResult: []float32{1}}
	c := NewCachedEmbedder(inner, 10, WithStore(store), WithLogger(nil))

	vec, err := c.Embed(context.Background(), "Zeus")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, vec)
	assert.Equal(t, 1, inner.EmbedCallCount)
}

func TestCachedEmbedder_BoltStore(t *testing.T) {
	store, err := boltcache.NewStore(filepath.Join(t.TempDir(), "embeddings.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	c := NewCachedEmbedder(&mocks.Embedder{EmbeddingResult: []float32{0.25, -1}}, 10, WithStore(store))
	_, err = c.Embed(ctx, "Thor")
	require.NoError(t, err)

	vec, ok, err := store.Get(CacheKey("Thor", "mock"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float32{0.25, -1}, vec)
}

package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/mythos/internal/domain/entities"
	"github.com/ersonp/mythos/internal/domain/mocks"
	"github.com/ersonp/mythos/internal/domain/ports"
)

func TestSearchService_Search_NameOnly(t *testing.T) {
	service := NewSearchService(thorIndex(), nil, nil, nil)

	result, err := service.Search(context.Background(), "Thor", SearchOptions{})

	require.NoError(t, err)
	assert.Equal(t, "Thor", result.Query)
	assert.Equal(t, []string{"Thor", "Þórr", "Donar", "Thunor", "thunder"}, result.Terms)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "thor", result.Hits[0].ID)
	assert.Equal(t, HitSourceName, result.Hits[0].Source)
	assert.Equal(t, scoreExactPrimary+primaryBonus, result.Hits[0].Relevance)
}

func TestSearchService_Search_MergesVectorHits(t *testing.T) {
	embedder := &mocks.Embedder{EmbeddingResult: []float32{0.1, 0.2}}
	vectorDB := &mocks.VectorDB{Hits: []entities.VectorHit{
		{EntityID: "thor", Name: "Thor", Score: 0.99},
		{EntityID: "perun", Name: "Perun", Type: "deity", Mythology: "slavic", Score: 0.8},
	}}
	service := NewSearchService(thorIndex(), embedder, vectorDB, nil)

	result, err := service.Search(context.Background(), "Thor", SearchOptions{
		Limit:         5,
		Mythology:     "slavic",
		EntityType:    "deity",
		MaxAlternates: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, "Thor Þórr", embedder.LastText)
	assert.Equal(t, ports.VectorFilter{Mythology: "slavic", Type: "deity"}, vectorDB.LastFilter)
	assert.Equal(t, 5, vectorDB.LastLimit)

	// The mythology filter drops Thor from the name matches; the vector hit
	// for Thor then fills the slot.
	require.Len(t, result.Hits, 2)
	assert.Equal(t, "thor", result.Hits[0].ID)
	assert.Equal(t, HitSourceVector, result.Hits[0].Source)
	assert.Equal(t, "perun", result.Hits[1].ID)
	assert.InDelta(t, 0.8, result.Hits[1].Score, 0.0001)
}

func TestSearchService_Search_NameHitsComeFirst(t *testing.T) {
	embedder := &mocks.Embedder{EmbeddingResult: []float32{0.1}}
	vectorDB := &mocks.VectorDB{Hits: []entities.VectorHit{
		{EntityID: "perun", Name: "Perun"},
		{EntityID: "thor", Name: "Thor"},
	}}
	service := NewSearchService(thorIndex(), embedder, vectorDB, nil)

	result, err := service.Search(context.Background(), "thor", SearchOptions{})

	require.NoError(t, err)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, "thor", result.Hits[0].ID)
	assert.Equal(t, HitSourceName, result.Hits[0].Source)
	assert.Equal(t, "perun", result.Hits[1].ID)
	assert.Equal(t, HitSourceVector, result.Hits[1].Source)
}

func TestSearchService_Search_SkipsVectorsWhenFull(t *testing.T) {
	embedder := &mocks.Embedder{EmbeddingResult: []float32{0.1}}
	vectorDB := &mocks.VectorDB{}
	service := NewSearchService(thorIndex(), embedder, vectorDB, nil)

	result, err := service.Search(context.Background(), "thor", SearchOptions{Limit: 1})

	require.NoError(t, err)
	assert.Len(t, result.Hits, 1)
	assert.Zero(t, embedder.EmbedCallCount)
	assert.Zero(t, vectorDB.SearchCallCount)
}

func TestSearchService_Search_EmptyQuery(t *testing.T) {
	embedder := &mocks.Embedder{EmbeddingResult: []float32{0.1}}
	service := NewSearchService(thorIndex(), embedder, &mocks.VectorDB{}, nil)

	for _, q := range []string{"", "  "} {
		result, err := service.Search(context.Background(), q, SearchOptions{})
		require.NoError(t, err)
		assert.Empty(t, result.Terms)
		assert.Empty(t, result.Hits)
	}
	assert.Zero(t, embedder.EmbedCallCount)
}

func TestSearchService_Search_Errors(t *testing.T) {
	t.Run("embedder", func(t *testing.T) {
		service := NewSearchService(thorIndex(), &mocks.Embedder{Err: assert.AnError}, &mocks.VectorDB{}, nil)

		_, err := service.Search(context.Background(), "zeus", SearchOptions{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "generating query embedding")
	})

	t.Run("vector store", func(t *testing.T) {
		service := NewSearchService(thorIndex(), &mocks.Embedder{}, &mocks.VectorDB{Err: assert.AnError}, nil)

		_, err := service.Search(context.Background(), "zeus", SearchOptions{})

		require.Error(t, err)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "searching entity vectors")
	})
}

func TestSearchService_SyncVectors(t *testing.T) {
	embedder := &mocks.Embedder{EmbeddingResult: []float32{0.5, 0.5}}
	vectorDB := &mocks.VectorDB{}
	service := NewSearchService(NewNameVariantIndex(nil), embedder, vectorDB, nil)

	written, err := service.SyncVectors(context.Background(), []entities.EntityRecord{
		{ID: "zeus", Name: "Zeus", Type: "deity", Mythologies: []string{"greek"}, Tags: []string{"sky"}},
		{Name: "no id"},
		{ID: "odin", Name: "Odin", Mythology: "norse"},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, written)
	assert.Equal(t, []string{"Zeus, sky, greek", "Odin, norse"}, embedder.LastTexts)
	require.Len(t, vectorDB.Vectors, 2)
	assert.Equal(t, "zeus", vectorDB.Vectors[0].EntityID)
	assert.Equal(t, "greek", vectorDB.Vectors[0].Mythology)
	assert.Equal(t, []float32{0.5, 0.5}, vectorDB.Vectors[1].Embedding)
}

func TestSearchService_SyncVectors_Batches(t *testing.T) {
	embedder := &mocks.Embedder{EmbeddingResult: []float32{1}}
	vectorDB := &mocks.VectorDB{}
	service := NewSearchService(NewNameVariantIndex(nil), embedder, vectorDB, nil)

	records := make([]entities.EntityRecord, embedBatchSize+6)
	for i := range records {
		records[i] = entities.EntityRecord{ID: fmt.Sprintf("e%d", i), Name: fmt.Sprintf("Entity %d", i)}
	}

	written, err := service.SyncVectors(context.Background(), records)

	require.NoError(t, err)
	assert.Equal(t, len(records), written)
	assert.Equal(t, 2, embedder.EmbedBatchCallCount)
	assert.Equal(t, 2, vectorDB.SaveBatchCallCount)
	assert.Len(t, vectorDB.SaveBatchLastVectors, 6)
}

func TestSearchService_SyncVectors_NotConfigured(t *testing.T) {
	service := NewSearchService(NewNameVariantIndex(nil), nil, nil, nil)

	_, err := service.SyncVectors(context.Background(), []entities.EntityRecord{{ID: "a", Name: "A"}})

	assert.ErrorIs(t, err, ErrVectorSearchDisabled)
}

func TestEntityText(t *testing.T) {
	rec := entities.EntityRecord{
		ID:        "thor",
		Name:      "Thor",
		Mythology: "norse",
		Linguistic: &entities.Linguistic{
			OriginalName:     "Þórr",
			AlternativeNames: []entities.AlternativeName{{Name: "Thor"}, {Name: " "}},
		},
		Mythologies: []string{"norse", "germanic"},
	}

	assert.Equal(t, "Thor, Þórr, norse, germanic", EntityText(&rec))
}

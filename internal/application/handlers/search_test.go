package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/mythos/internal/domain/entities"
	"github.com/ersonp/mythos/internal/domain/mocks"
	"github.com/ersonp/mythos/internal/domain/services"
)

func TestSearchHandler_Handle(t *testing.T) {
	embedder := &mocks.Embedder{EmbeddingResult: []float32{0.1, 0.2}}
	vectorDB := &mocks.VectorDB{Hits: []entities.VectorHit{
		{EntityID: "zeus", Name: "Zeus", Score: 0.8},
		{EntityID: "odin", Name: "Odin", Score: 0.7},
	}}
	service := services.NewSearchService(loadedIndex(), embedder, vectorDB, nil)
	handler := NewSearchHandler(service, nil, nil, 0)

	result, err := handler.Handle(context.Background(), "Donar", services.SearchOptions{Limit: 3})

	require.NoError(t, err)
	require.Len(t, result.Hits, 3)
	assert.Equal(t, "thor", result.Hits[0].ID)
	assert.Equal(t, services.HitSourceName, result.Hits[0].Source)
	assert.Equal(t, services.HitSourceVector, result.Hits[1].Source)
}

func TestSearchHandler_Handle_Error(t *testing.T) {
	embedder := &mocks.Embedder{Err: errors.New("rate limited")}
	service := services.NewSearchService(loadedIndex(), embedder, &mocks.VectorDB{}, nil)
	handler := NewSearchHandler(service, nil, nil, 0)

	_, err := handler.Handle(context.Background(), "Donar", services.SearchOptions{})

	assert.ErrorContains(t, err, "searching entities")
}

func TestSearchHandler_HandleSync(t *testing.T) {
	store := mocks.NewEntityStore(pantheon()...)
	embedder := &mocks.Embedder{EmbeddingResult: []float32{0.1, 0.2}}
	vectorDB := &mocks.VectorDB{}
	collections := &mocks.CollectionManager{}
	service := services.NewSearchService(loadedIndex(), embedder, vectorDB, nil)
	handler := NewSearchHandler(service, store, collections, 1536)

	result, err := handler.HandleSync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, result.Records)
	assert.Equal(t, 4, result.Written)
	assert.Len(t, vectorDB.Vectors, 4)
	assert.Equal(t, uint64(1536), collections.LastVectorSize)
}

func TestSearchHandler_HandleSync_CollectionError(t *testing.T) {
	store := mocks.NewEntityStore(pantheon()...)
	collections := &mocks.CollectionManager{EnsureErr: errors.New("unavailable")}
	service := services.NewSearchService(loadedIndex(), &mocks.Embedder{}, &mocks.VectorDB{}, nil)
	handler := NewSearchHandler(service, store, collections, 1536)

	_, err := handler.HandleSync(context.Background())

	assert.ErrorContains(t, err, "ensuring collection")
}

func TestSearchHandler_HandleSync_NotConfigured(t *testing.T) {
	store := mocks.NewEntityStore(pantheon()...)
	service := services.NewSearchService(loadedIndex(), nil, nil, nil)
	handler := NewSearchHandler(service, store, nil, 0)

	_, err := handler.HandleSync(context.Background())
	assert.ErrorIs(t, err, services.ErrVectorSearchDisabled)

	_, err = NewSearchHandler(service, nil, nil, 0).HandleSync(context.Background())
	assert.ErrorContains(t, err, "no entity store")
}

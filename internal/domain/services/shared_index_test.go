package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/mythos/internal/domain/entities"
)

func TestSharedIndex_Lookups(t *testing.T) {
	shared := NewSharedIndex(thorIndex())

	matches := shared.FindEntitiesByName("thor", FindOptions{ExactMatch: true})
	require.Len(t, matches, 1)
	assert.Contains(t, shared.GetAlternateNames("thor"), "Donar")
	assert.Equal(t, []string{"Thor", "Þórr"}, shared.ExpandSearchTerms("Thor", ExpandOptions{MaxAlternates: 1}))

	ref, ok := shared.Entity("thor")
	require.True(t, ok)
	assert.Equal(t, "Thor", ref.PrimaryName)
	assert.Equal(t, 1, shared.Stats().TotalEntities)
}

func TestSharedIndex_Rebuild(t *testing.T) {
	shared := NewSharedIndex(thorIndex())

	err := shared.Rebuild(func(x *NameVariantIndex) error {
		assert.Equal(t, 0, x.Stats().TotalEntities, "rebuild starts from an empty index")
		x.LoadFromArray([]entities.EntityRecord{enki()})
		return nil
	})

	require.NoError(t, err)
	assert.Empty(t, shared.FindEntitiesByName("thor", FindOptions{}))
	assert.Len(t, shared.FindEntitiesByName("ea", FindOptions{ExactMatch: true}), 1)
	assert.True(t, shared.Stats().Initialized)
}

func TestSharedIndex_Rebuild_PassesError(t *testing.T) {
	shared := NewSharedIndex(thorIndex())
	boom := errors.New("source offline")

	err := shared.Rebuild(func(x *NameVariantIndex) error {
		x.IndexEntity(&entities.EntityRecord{ID: "partial", Name: "Partial"})
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Len(t, shared.FindEntitiesByName("partial", FindOptions{}), 1)
}

func TestSharedIndex_ConcurrentReadsDuringRebuild(t *testing.T) {
	shared := NewSharedIndex(thorIndex())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				matches := shared.FindEntitiesByName("thor", FindOptions{ExactMatch: true})
				// Rebuild holds the write lock, so readers never see it half done.
				assert.Len(t, matches, 1)
				_ = shared.Stats()
			}
		}()
	}

	for range 20 {
		require.NoError(t, shared.Rebuild(func(x *NameVariantIndex) error {
			x.LoadFromArray([]entities.EntityRecord{{ID: "thor", Name: "Thor"}})
			return nil
		}))
	}
	wg.Wait()

	assert.Len(t, shared.FindEntitiesByName("thor", FindOptions{ExactMatch: true}), 1)
}

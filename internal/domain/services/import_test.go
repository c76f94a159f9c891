package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/mythos/internal/domain/entities"
	"github.com/ersonp/mythos/internal/domain/mocks"
	"github.com/ersonp/mythos/internal/infrastructure/parsers"
)

func raw(line int, rec entities.EntityRecord) parsers.RawEntity {
	return parsers.RawEntity{Record: rec, LineNum: line}
}

func TestImportService_Import_ValidRecords(t *testing.T) {
	store := mocks.NewEntityStore()

	service := NewImportService(store)
	raws := []parsers.RawEntity{
		raw(1, entities.EntityRecord{ID: "zeus", Name: "Zeus", Type: "deity", Mythology: "greek"}),
	}

	result, err := service.Import(context.Background(), raws, ImportOptions{OnConflict: ConflictOverwrite})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, store.SaveBatchCallCount)
	assert.Contains(t, store.Records, "zeus")
}

func TestImportService_Import_ValidationErrors(t *testing.T) {
	store := mocks.NewEntityStore()

	service := NewImportService(store)
	raws := []parsers.RawEntity{
		raw(1, entities.EntityRecord{Name: "Zeus"}),
		raw(2, entities.EntityRecord{ID: "odin", Name: "  "}),
		raw(3, entities.EntityRecord{Malformed: []string{"record"}}),
	}

	result, err := service.Import(context.Background(), raws, ImportOptions{OnConflict: ConflictOverwrite})

	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, "id", result.Errors[0].Field)
	assert.Equal(t, "name", result.Errors[1].Field)
	assert.Equal(t, "record", result.Errors[2].Field)
	assert.Equal(t, 3, result.Errors[2].Line)
	assert.Zero(t, store.SaveBatchCallCount)
}

func TestImportService_Import_DuplicateIDs(t *testing.T) {
	store := mocks.NewEntityStore()

	service := NewImportService(store)
	raws := []parsers.RawEntity{
		raw(2, entities.EntityRecord{ID: "thor", Name: "Thor"}),
		raw(3, entities.EntityRecord{ID: "thor", Name: "Donar"}),
	}

	result, err := service.Import(context.Background(), raws, ImportOptions{OnConflict: ConflictOverwrite})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Line)
	assert.Contains(t, result.Errors[0].Message, "first seen on line 2")
	assert.Equal(t, "Thor", store.Records["thor"].Name)
}

func TestImportService_Import_GenerateIDs(t *testing.T) {
	store := mocks.NewEntityStore()

	service := NewImportService(store)
	raws := []parsers.RawEntity{
		raw(1, entities.EntityRecord{Name: "Anansi"}),
		raw(2, entities.EntityRecord{ID: "loki", Name: "Loki"}),
	}

	result, err := service.Import(context.Background(), raws, ImportOptions{GenerateIDs: true, OnConflict: ConflictOverwrite})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Empty(t, result.Errors)

	require.Len(t, store.SaveBatchLastRecords, 2)
	assert.Len(t, store.SaveBatchLastRecords[0].ID, 36)
	assert.Equal(t, "loki", store.SaveBatchLastRecords[1].ID)
}

func TestImportService_Import_MalformedFieldsBecomeWarnings(t *testing.T) {
	store := mocks.NewEntityStore()

	service := NewImportService(store)
	raws := []parsers.RawEntity{
		raw(1, entities.EntityRecord{ID: "ra", Name: "Ra", Malformed: []string{"tags"}}),
	}

	result, err := service.Import(context.Background(), raws, ImportOptions{OnConflict: ConflictOverwrite})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "tags", result.Warnings[0].Field)
	assert.Empty(t, store.Records["ra"].Malformed)
}

func TestImportService_Import_DefaultCategory(t *testing.T) {
	store := mocks.NewEntityStore()

	service := NewImportService(store)
	raws := []parsers.RawEntity{
		raw(1, entities.EntityRecord{ID: "ra", Name: "Ra"}),
		raw(2, entities.EntityRecord{ID: "set", Name: "Set", Category: "egyptian"}),
	}

	_, err := service.Import(context.Background(), raws, ImportOptions{Category: "deities", OnConflict: ConflictOverwrite})

	require.NoError(t, err)
	assert.Equal(t, "deities", store.Records["ra"].Category)
	assert.Equal(t, "egyptian", store.Records["set"].Category)
}

func TestImportService_Import_DryRun(t *testing.T) {
	store := mocks.NewEntityStore()

	service := NewImportService(store)
	raws := []parsers.RawEntity{
		raw(1, entities.EntityRecord{ID: "zeus", Name: "Zeus"}),
	}

	result, err := service.Import(context.Background(), raws, ImportOptions{DryRun: true})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Zero(t, store.SaveBatchCallCount, "SaveBatch should not be called in dry run")
}

func TestImportService_Import_SkipExisting(t *testing.T) {
	store := mocks.NewEntityStore(entities.EntityRecord{ID: "zeus", Name: "Zeus"})

	service := NewImportService(store)
	raws := []parsers.RawEntity{
		raw(1, entities.EntityRecord{ID: "zeus", Name: "Jupiter"}),
		raw(2, entities.EntityRecord{ID: "hera", Name: "Hera"}),
	}

	result, err := service.Import(context.Background(), raws, ImportOptions{OnConflict: ConflictSkip})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "Zeus", store.Records["zeus"].Name)
}

func TestImportService_Import_OverwriteExisting(t *testing.T) {
	store := mocks.NewEntityStore(entities.EntityRecord{ID: "zeus", Name: "Zeus"})

	service := NewImportService(store)
	raws := []parsers.RawEntity{
		raw(1, entities.EntityRecord{ID: "zeus", Name: "Zeus Pater"}),
	}

	result, err := service.Import(context.Background(), raws, ImportOptions{OnConflict: ConflictOverwrite})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, "Zeus Pater", store.Records["zeus"].Name)
}

func TestImportService_Import_EmptyInput(t *testing.T) {
	store := mocks.NewEntityStore()

	service := NewImportService(store)
	result, err := service.Import(context.Background(), []parsers.RawEntity{}, ImportOptions{})

	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Errors)
}

func TestImportService_Import_SaveError(t *testing.T) {
	tests := []struct {
		name     string
		conflict ConflictStrategy
		contains string
	}{
		{"overwrite", ConflictOverwrite, "saving entities"},
		{"skip checks existing first", ConflictSkip, "checking existing entities"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mocks.EntityStore{Err: assert.AnError}

			service := NewImportService(store)
			raws := []parsers.RawEntity{
				raw(1, entities.EntityRecord{ID: "zeus", Name: "Zeus"}),
			}

			_, err := service.Import(context.Background(), raws, ImportOptions{OnConflict: tt.conflict})

			require.Error(t, err)
			assert.ErrorIs(t, err, assert.AnError)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestParseConflictStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    ConflictStrategy
		wantErr bool
	}{
		{"", ConflictSkip, false},
		{"skip", ConflictSkip, false},
		{"Overwrite", ConflictOverwrite, false},
		{"merge", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseConflictStrategy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImportError_Error(t *testing.T) {
	t.Run("with line number", func(t *testing.T) {
		err := ImportError{Line: 5, Message: "missing required field: id"}
		assert.Equal(t, "line 5: missing required field: id", err.Error())
	})

	t.Run("without line number", func(t *testing.T) {
		err := ImportError{Line: 0, Message: "general error"}
		assert.Equal(t, "general error", err.Error())
	})
}

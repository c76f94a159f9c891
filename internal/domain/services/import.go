package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ersonp/mythos/internal/domain/entities"
	"github.com/ersonp/mythos/internal/domain/ports"
	"github.com/ersonp/mythos/internal/infrastructure/parsers"
)

// ConflictStrategy defines how to handle existing records during import.
type ConflictStrategy string

const (
	// ConflictSkip skips records that already exist (by ID).
	ConflictSkip ConflictStrategy = "skip"
	// ConflictOverwrite overwrites existing records with new data.
	ConflictOverwrite ConflictStrategy = "overwrite"
)

// ParseConflictStrategy validates a strategy name. Empty means skip.
func ParseConflictStrategy(s string) (ConflictStrategy, error) {
	switch ConflictStrategy(strings.ToLower(s)) {
	case "", ConflictSkip:
		return ConflictSkip, nil
	case ConflictOverwrite:
		return ConflictOverwrite, nil
	default:
		return "", fmt.Errorf("invalid conflict strategy %q (valid: skip, overwrite)", s)
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun      bool             // Validate without saving
	OnConflict  ConflictStrategy // How to handle existing records
	GenerateIDs bool             // Assign a UUID to records without an ID
	Category    string           // Category for records that carry none
}

// ImportError represents an error for a specific record during import.
type ImportError struct {
	Line    int    // Line number (1-indexed, 0 if unknown)
	Field   string // Which field has the error
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported int
	Skipped  int
	Errors   []ImportError
	Warnings []ImportError // Fields dropped from otherwise valid records
}

// ImportService stores parsed entity records in an EntityStore.
type ImportService struct {
	store ports.EntityStore
}

// NewImportService creates a new import service.
func NewImportService(store ports.EntityStore) *ImportService {
	return &ImportService{store: store}
}

// Import validates raw records and saves the valid ones.
func (s *ImportService) Import(ctx context.Context, raws []parsers.RawEntity, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}

	records, errs, warnings := s.validate(raws, opts)
	result.Errors = errs
	result.Warnings = warnings

	if len(records) == 0 {
		return result, nil
	}

	if opts.DryRun {
		result.Imported = len(records)
		return result, nil
	}

	imported, skipped, err := s.saveWithConflictHandling(ctx, records, opts.OnConflict)
	if err != nil {
		return nil, fmt.Errorf("saving entities: %w", err)
	}

	result.Imported = imported
	result.Skipped = skipped

	return result, nil
}

// validate checks raw records and returns the valid ones with any errors.
// A repeated ID within the input is an error; the first occurrence wins.
func (s *ImportService) validate(raws []parsers.RawEntity, opts ImportOptions) ([]entities.EntityRecord, []ImportError, []ImportError) {
	valid := make([]entities.EntityRecord, 0, len(raws))
	var errs, warnings []ImportError
	seen := make(map[string]int, len(raws))

	for i := range raws {
		rec := raws[i].Record
		lineNum := raws[i].LineNum
		if lineNum == 0 {
			lineNum = i + 1
		}

		rec.ID = strings.TrimSpace(rec.ID)
		rec.Name = strings.TrimSpace(rec.Name)
		if rec.ID == "" && opts.GenerateIDs && !isMalformed(&rec, "id") {
			rec.ID = uuid.New().String()
		}

		if err := validateRecord(&rec, lineNum); err != nil {
			errs = append(errs, *err)
			continue
		}

		if first, dup := seen[rec.ID]; dup {
			errs = append(errs, ImportError{
				Line:    lineNum,
				Field:   "id",
				Value:   rec.ID,
				Message: fmt.Sprintf("duplicate id %q (first seen on line %d)", rec.ID, first),
			})
			continue
		}
		seen[rec.ID] = lineNum

		for _, field := range rec.Malformed {
			warnings = append(warnings, ImportError{
				Line:    lineNum,
				Field:   field,
				Message: fmt.Sprintf("ignoring malformed field %q", field),
			})
		}
		rec.Malformed = nil

		if rec.Category == "" {
			rec.Category = opts.Category
		}

		valid = append(valid, rec)
	}

	return valid, errs, warnings
}

// validateRecord validates a single record and returns an error if invalid.
func validateRecord(rec *entities.EntityRecord, lineNum int) *ImportError {
	if isMalformed(rec, "record") {
		return &ImportError{Line: lineNum, Field: "record", Message: "record is not an object"}
	}
	if rec.ID == "" {
		return &ImportError{Line: lineNum, Field: "id", Message: "missing required field: id"}
	}
	if rec.Name == "" {
		return &ImportError{Line: lineNum, Field: "name", Message: "missing required field: name"}
	}
	return nil
}

func isMalformed(rec *entities.EntityRecord, field string) bool {
	for _, f := range rec.Malformed {
		if f == field {
			return true
		}
	}
	return false
}

// saveWithConflictHandling saves records with conflict handling.
func (s *ImportService) saveWithConflictHandling(ctx context.Context, records []entities.EntityRecord, onConflict ConflictStrategy) (imported, skipped int, err error) {
	if onConflict == ConflictOverwrite {
		if err := s.store.SaveBatch(ctx, records); err != nil {
			return 0, 0, err
		}
		return len(records), 0, nil
	}

	toSave, skipped, err := s.filterExisting(ctx, records)
	if err != nil {
		return 0, 0, err
	}
	if len(toSave) == 0 {
		return 0, skipped, nil
	}

	if err := s.store.SaveBatch(ctx, toSave); err != nil {
		return 0, 0, err
	}
	return len(toSave), skipped, nil
}

// filterExisting filters out records that already exist in the store.
func (s *ImportService) filterExisting(ctx context.Context, records []entities.EntityRecord) ([]entities.EntityRecord, int, error) {
	ids := make([]string, len(records))
	for i := range records {
		ids[i] = records[i].ID
	}

	exists, err := s.store.ExistsByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("checking existing entities: %w", err)
	}

	toSave := make([]entities.EntityRecord, 0, len(records))
	var skipped int
	for i := range records {
		if exists[records[i].ID] {
			skipped++
		} else {
			toSave = append(toSave, records[i])
		}
	}

	return toSave, skipped, nil
}

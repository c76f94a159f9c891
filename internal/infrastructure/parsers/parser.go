// Package parsers reads entity records from JSON, YAML and CSV files.
package parsers

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/ersonp/mythos/internal/domain/entities"
)

// RawEntity is a record read from a file, before validation.
type RawEntity struct {
	Record  entities.EntityRecord
	LineNum int // Position in the source (array index or CSV line), 1-indexed
}

// Parser defines the interface for parsing entity records.
type Parser interface {
	Parse(r io.Reader) ([]RawEntity, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "yaml", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "yaml", "yml":
		return &YAMLParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return nil
	}
	return ForFormat(ext)
}

// Records strips positions from parsed entities.
func Records(raws []RawEntity) []entities.EntityRecord {
	records := make([]entities.EntityRecord, len(raws))
	for i := range raws {
		records[i] = raws[i].Record
	}
	return records
}

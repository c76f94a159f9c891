package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ersonp/mythos/internal/domain/entities"
)

// listSeparator splits multi-valued CSV cells.
const listSeparator = ";"

// CSVParser parses entity records from CSV.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed records.
// Expected columns: id, name, type, mythology, mythologies, tags,
// alternative_names, category. List cells are separated by ";".
func (p *CSVParser) Parse(r io.Reader) ([]RawEntity, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	for _, col := range []string{"id", "name"} {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to RawEntities.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawEntity, error) {
	var result []RawEntity
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		result = append(result, RawEntity{
			Record:  parseRecord(record, colIndex),
			LineNum: lineNum,
		})
	}

	return result, nil
}

// parseRecord converts a CSV row to an EntityRecord.
func parseRecord(row []string, colIndex map[string]int) entities.EntityRecord {
	rec := entities.EntityRecord{
		ID:          strings.TrimSpace(getColumn(row, colIndex, "id")),
		Name:        strings.TrimSpace(getColumn(row, colIndex, "name")),
		Type:        strings.TrimSpace(getColumn(row, colIndex, "type")),
		Mythology:   strings.TrimSpace(getColumn(row, colIndex, "mythology")),
		Mythologies: splitList(getColumn(row, colIndex, "mythologies")),
		Tags:        splitList(getColumn(row, colIndex, "tags")),
		Category:    strings.TrimSpace(getColumn(row, colIndex, "category")),
	}

	if alts := splitList(getColumn(row, colIndex, "alternative_names")); len(alts) > 0 {
		rec.Linguistic = &entities.Linguistic{}
		for _, name := range alts {
			rec.Linguistic.AlternativeNames = append(rec.Linguistic.AlternativeNames, entities.AlternativeName{Name: name})
		}
	}

	return rec
}

// getColumn safely retrieves a column value from a row.
func getColumn(row []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(row) {
		return row[idx]
	}
	return ""
}

func splitList(cell string) []string {
	var out []string
	for _, part := range strings.Split(cell, listSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

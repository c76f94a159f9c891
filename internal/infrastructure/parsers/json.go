package parsers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// JSONParser parses a JSON array of entity records, or a single record object.
type JSONParser struct{}

// Parse reads JSON from the reader and returns parsed records. An array
// element that is not an object yields a record with no ID, which the
// index skips.
func (p *JSONParser) Parse(r io.Reader) ([]RawEntity, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading JSON: %w", err)
	}
	return parseJSON(data)
}

func parseJSON(data []byte) ([]RawEntity, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("parsing JSON: empty input")
	}

	if data[0] == '{' {
		var raw RawEntity
		if err := json.Unmarshal(data, &raw.Record); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
		raw.LineNum = 1
		return []RawEntity{raw}, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	result := make([]RawEntity, len(elems))
	for i, elem := range elems {
		result[i].LineNum = i + 1
		if err := json.Unmarshal(elem, &result[i].Record); err != nil {
			result[i].Record.Malformed = []string{"record"}
		}
	}
	return result, nil
}

package parsers

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLParser parses a YAML list of entity records, or a single record mapping.
// Documents are converted to JSON and decoded with the same tolerant rules
// as JSONParser.
type YAMLParser struct{}

// Parse reads YAML from the reader and returns parsed records.
func (p *YAMLParser) Parse(r io.Reader) ([]RawEntity, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	data, err := json.Marshal(jsonCompatible(doc))
	if err != nil {
		return nil, fmt.Errorf("converting YAML: %w", err)
	}
	return parseJSON(data)
}

// jsonCompatible converts maps with non-string keys, which yaml.v3 produces
// for keys such as numbers, into string-keyed maps.
func jsonCompatible(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = jsonCompatible(val)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return m
	case []any:
		for i := range t {
			t[i] = jsonCompatible(t[i])
		}
		return t
	default:
		return v
	}
}

// Package source reads entity records from a data directory or an HTTP
// server laid out as <category>/manifest.json plus the files it lists.
package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

const (
	// ManifestFile lists the files of one category.
	ManifestFile = "manifest.json"
	// CategoriesFile lists the categories of an HTTP source.
	CategoriesFile = "categories.json"
)

// manifestObject is the object form of a manifest: {"files": [...]}.
type manifestObject struct {
	Files []string `json:"files"`
}

// parseManifest accepts a JSON array of names or an object with a "files"
// array. Blank entries are dropped.
func parseManifest(data []byte) ([]string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("parsing manifest: empty")
	}

	var names []string
	if data[0] == '{' {
		var obj manifestObject
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("parsing manifest: %w", err)
		}
		names = obj.Files
	} else if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out, nil
}

// validRef reports whether ref names a file inside its category. Refs use
// forward slashes and may not escape the category.
func validRef(ref string) bool {
	if ref == "" || strings.Contains(ref, `\`) || path.IsAbs(ref) {
		return false
	}
	clean := path.Clean(ref)
	return clean != "." && clean != ".." && !strings.HasPrefix(clean, "../")
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ersonp/mythos/internal/domain/services"
)

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeMatches prints one block per match.
func writeMatches(w io.Writer, matches []services.EntityMatch) {
	for i := range matches {
		m := &matches[i]
		fmt.Fprintf(w, "%s (%s)\n", m.PrimaryName, m.ID)
		fmt.Fprintf(w, "  Type: %s  Mythology: %s  Relevance: %d\n", orDash(m.Type), orDash(m.Mythology), m.Relevance)
		fmt.Fprintf(w, "  Matched: %s\n", variantNames(m))
	}
}

func variantNames(m *services.EntityMatch) string {
	names := make([]string, 0, len(m.MatchedVariants))
	seen := make(map[string]struct{}, len(m.MatchedVariants))
	for _, v := range m.MatchedVariants {
		if _, dup := seen[v.Name]; dup {
			continue
		}
		seen[v.Name] = struct{}{}
		names = append(names, fmt.Sprintf("%s [%s]", v.Name, v.Origin))
	}
	return strings.Join(names, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens s to n runes with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

package entities

import (
	"fmt"
	"time"
)

// LoadError records a failure to fetch or parse one item during a bulk load.
type LoadError struct {
	Category string `json:"category,omitempty"`
	Ref      string `json:"ref,omitempty"`
	Err      error  `json:"-"`
}

func (e LoadError) Error() string {
	switch {
	case e.Ref != "":
		return fmt.Sprintf("%s/%s: %v", e.Category, e.Ref, e.Err)
	case e.Category != "":
		return fmt.Sprintf("%s: %v", e.Category, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e LoadError) Unwrap() error {
	return e.Err
}

// LoadStats summarizes a bulk load into the name index.
type LoadStats struct {
	RunID         string         `json:"run_id"`
	TotalEntities int            `json:"total_entities"`
	TotalNames    int            `json:"total_names"`
	Skipped       int            `json:"skipped"`
	ByType        map[string]int `json:"by_type"`
	Errors        []LoadError    `json:"-"`
	Duration      time.Duration  `json:"duration"`
}

// IndexStats is a point-in-time view of the name index.
type IndexStats struct {
	Initialized           bool    `json:"initialized"`
	TotalEntities         int     `json:"total_entities"`
	TotalNameVariants     int     `json:"total_name_variants"`
	IndexedCount          int     `json:"indexed_count"`
	AverageNamesPerEntity float64 `json:"average_names_per_entity"`
}

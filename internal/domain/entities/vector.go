package entities

import "time"

// EntityVector is the embedding of one entity's names, stored for the
// broad search stage.
type EntityVector struct {
	EntityID    string
	Name        string
	Type        string
	Mythology   string
	Mythologies []string
	Embedding   []float32
}

// VectorHit is one result of a vector search.
type VectorHit struct {
	EntityID  string  `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Mythology string  `json:"mythology"`
	Score     float32 `json:"score"`
}

// LoadRun is a stored summary of one index load.
type LoadRun struct {
	ID            string    `json:"id"`
	Source        string    `json:"source"`
	TotalEntities int       `json:"total_entities"`
	TotalNames    int       `json:"total_names"`
	Skipped       int       `json:"skipped"`
	Errors        int       `json:"errors"`
	DurationMS    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

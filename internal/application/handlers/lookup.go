package handlers

import (
	"fmt"

	"github.com/ersonp/mythos/internal/domain/entities"
	"github.com/ersonp/mythos/internal/domain/services"
)

// LookupHandler answers name lookups against the index.
type LookupHandler struct {
	index services.NameLookup
}

// NewLookupHandler creates a new lookup handler.
func NewLookupHandler(index services.NameLookup) *LookupHandler {
	return &LookupHandler{
		index: index,
	}
}

// FindResult contains the result of a name lookup.
type FindResult struct {
	Query    string                 `json:"query"`
	Matches  []services.EntityMatch `json:"matches"`
	Warnings []string               `json:"warnings,omitempty"`
}

// HandleFind looks up entities by name. An entity type outside the default
// set is allowed but reported as a warning.
func (h *LookupHandler) HandleFind(query string, opts services.FindOptions) *FindResult {
	result := &FindResult{
		Query:   query,
		Matches: h.index.FindEntitiesByName(query, opts),
	}
	if opts.EntityType != "" && !entities.IsDefaultType(opts.EntityType) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%q is not a default entity type", opts.EntityType))
	}
	return result
}

// AliasesResult lists every name of one entity.
type AliasesResult struct {
	Entity *entities.EntityRef `json:"entity,omitempty"`
	Names  []string            `json:"names"`
}

// HandleAliases returns the names indexed for an entity. Entity is nil when
// the ID is unknown.
func (h *LookupHandler) HandleAliases(entityID string) *AliasesResult {
	result := &AliasesResult{Names: h.index.GetAlternateNames(entityID)}
	if ref, ok := h.index.Entity(entityID); ok {
		result.Entity = &ref
	}
	return result
}

// ExpandResult contains a term widened with known aliases.
type ExpandResult struct {
	Term  string   `json:"term"`
	Terms []string `json:"terms"`
}

// HandleExpand expands a search term.
func (h *LookupHandler) HandleExpand(term string, opts services.ExpandOptions) *ExpandResult {
	return &ExpandResult{
		Term:  term,
		Terms: h.index.ExpandSearchTerms(term, opts),
	}
}

// HandleStats reports the index size.
func (h *LookupHandler) HandleStats() entities.IndexStats {
	return h.index.Stats()
}

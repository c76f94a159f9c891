package handlers

import (
	"sort"

	"github.com/ersonp/mythos/internal/domain/entities"
)

// EntityTypeHandler reports the default entity types.
type EntityTypeHandler struct{}

// NewEntityTypeHandler creates a new EntityTypeHandler.
func NewEntityTypeHandler() *EntityTypeHandler {
	return &EntityTypeHandler{}
}

// TypeCount is an entity type with the number of indexed records of it.
type TypeCount struct {
	entities.EntityType
	Count   int  `json:"count"`
	Default bool `json:"default"`
}

// HandleList returns the default types followed by any other type seen in
// byType, sorted by name. byType may be nil.
func (h *EntityTypeHandler) HandleList(byType map[string]int) []TypeCount {
	types := make([]TypeCount, 0, len(entities.DefaultEntityTypes)+len(byType))
	for _, t := range entities.DefaultEntityTypes {
		types = append(types, TypeCount{EntityType: t, Count: byType[t.Name], Default: true})
	}

	var extra []string
	for name := range byType {
		if !entities.IsDefaultType(name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		types = append(types, TypeCount{EntityType: entities.EntityType{Name: name}, Count: byType[name]})
	}
	return types
}

// HandleDescribe returns a default type by name, or nil.
func (h *EntityTypeHandler) HandleDescribe(name string) *entities.EntityType {
	for i := range entities.DefaultEntityTypes {
		if entities.DefaultEntityTypes[i].Name == name {
			t := entities.DefaultEntityTypes[i]
			return &t
		}
	}
	return nil
}

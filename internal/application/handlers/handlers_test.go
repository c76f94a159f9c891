package handlers

import (
	"github.com/ersonp/mythos/internal/domain/entities"
	"github.com/ersonp/mythos/internal/domain/services"
)

func pantheon() []entities.EntityRecord {
	return []entities.EntityRecord{
		{
			ID:          "thor",
			Name:        "Thor",
			Type:        "deity",
			Mythologies: []string{"norse"},
			Linguistic: &entities.Linguistic{
				AlternativeNames: []entities.AlternativeName{{Name: "Donar"}, {Name: "Thunor"}},
			},
			Category: "norse",
		},
		{ID: "zeus", Name: "Zeus", Type: "deity", Mythology: "greek", Mythologies: []string{"greek"}, Category: "greek"},
		{ID: "heracles", Name: "Heracles", Type: "hero", Mythology: "greek", Mythologies: []string{"greek"}, Tags: []string{"Hercules"}, Category: "greek"},
		{ID: "jormungandr", Name: "Jörmungandr", Type: "serpent", Mythology: "norse", Mythologies: []string{"norse"}, Category: "norse"},
	}
}

func loadedIndex() *services.NameVariantIndex {
	index := services.NewNameVariantIndex(nil)
	index.LoadFromArray(pantheon())
	return index
}

// Package ports defines interfaces for external service communication.
package ports

import (
	"context"

	"github.com/ersonp/mythos/internal/domain/entities"
)

// EntitySource supplies entity records grouped into categories. A source
// publishes a manifest per category listing the items to fetch; an item may
// hold one record or many.
type EntitySource interface {
	// Categories lists the categories the source holds.
	Categories(ctx context.Context) ([]string, error)

	// Manifest lists the item references of one category.
	Manifest(ctx context.Context, category string) ([]string, error)

	// Fetch reads the records of one item.
	Fetch(ctx context.Context, category, ref string) ([]entities.EntityRecord, error)
}

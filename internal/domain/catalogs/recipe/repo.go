package recipe

import (
	"context"

	"fornada/internal/core/id"
)

// Repository defines storage operations for recipes.
// GetByID always loads items: explosion and costing need the full
// composition every time.
type Repository interface {
	Create(ctx context.Context, r *Recipe) error

	// Update replaces the recipe row and its full item set.
	Update(ctx context.Context, r *Recipe) error

	GetByID(ctx context.Context, recipeID id.ID) (*Recipe, error)
	List(ctx context.Context, includeInactive bool) ([]Recipe, error)
}

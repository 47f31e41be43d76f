// Package product provides the Product catalog.
package product

import (
	"context"

	"fornada/internal/core/entity"
	"fornada/internal/core/id"
	"fornada/internal/core/types"
)

// Product is a sellable item, optionally backed by a recipe.
// Without a recipe the estimated unit cost is zero.
type Product struct {
	entity.Catalog

	// RecipeID links the product to its bill of materials (optional)
	RecipeID *id.ID `db:"recipe_id" json:"recipeId,omitempty"`

	// ManualPrice overrides the margin-derived price when set
	ManualPrice *types.Money `db:"manual_price" json:"manualPrice,omitempty"`
}

// New creates a new active Product.
func New(name string) *Product {
	return &Product{Catalog: entity.NewCatalog(name)}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	return p.Catalog.Validate(ctx)
}

// HasRecipe reports whether the product is linked to a recipe.
func (p *Product) HasRecipe() bool {
	return p.RecipeID != nil && !id.IsNil(*p.RecipeID)
}

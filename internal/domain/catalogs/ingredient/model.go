// Package ingredient provides the Ingredient catalog and its price history.
// An ingredient carries exactly one unit of measure; every lot and every
// stock move for it must use that unit (no unit conversion is modeled).
package ingredient

import (
	"context"
	"time"

	"fornada/internal/core/apperror"
	"fornada/internal/core/entity"
	"fornada/internal/core/id"
	"fornada/internal/core/types"
)

// Ingredient represents a base material used by recipes.
type Ingredient struct {
	entity.Catalog

	// Unit is the unit of measure for all quantities of this ingredient
	// (e.g. "g", "ml", "un"). Exactly one unit per ingredient.
	Unit string `db:"unit" json:"unit"`
}

// New creates a new active Ingredient.
func New(name, unit string) *Ingredient {
	return &Ingredient{
		Catalog: entity.NewCatalog(name),
		Unit:    unit,
	}
}

// Validate implements entity.Validatable.
func (i *Ingredient) Validate(ctx context.Context) error {
	if err := i.Catalog.Validate(ctx); err != nil {
		return err
	}
	if i.Unit == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}
	return nil
}

// Price is one entry of the append-only price history for an ingredient.
// Written by the purchase-recording flow; read by the costing engine as a
// fallback when no lots remain.
type Price struct {
	ID           id.ID       `db:"id" json:"id"`
	IngredientID id.ID       `db:"ingredient_id" json:"ingredientId"`
	Price        types.Money `db:"price" json:"price"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
}

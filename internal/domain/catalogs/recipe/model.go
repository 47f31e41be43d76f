// Package recipe provides the Recipe catalog (bill of materials).
// A recipe yields a fixed quantity of output; its items reference either a
// base ingredient or another recipe (sub-recipe), never both.
package recipe

import (
	"context"

	"fornada/internal/core/apperror"
	"fornada/internal/core/entity"
	"fornada/internal/core/id"
	"fornada/internal/core/types"
)

// ItemKind tags how an item quantity is displayed. It has no effect on
// arithmetic.
type ItemKind string

const (
	KindWeight ItemKind = "weight"
	KindCount  ItemKind = "count"
)

// Recipe represents a bill of materials with a declared yield.
type Recipe struct {
	entity.Catalog

	// YieldQty is the total output produced by one full batch. Must be > 0:
	// recipe explosion divides by it.
	YieldQty types.Quantity `db:"yield_qty" json:"yieldQty"`

	// YieldUnit is the unit of the yield (display only)
	YieldUnit string `db:"yield_unit" json:"yieldUnit"`

	// Items is the unordered set of components
	Items []Item `db:"-" json:"items"`
}

// Item is one component of a recipe: exactly one of IngredientID or
// SubRecipeID is set.
type Item struct {
	ID       id.ID `db:"id" json:"id"`
	RecipeID id.ID `db:"recipe_id" json:"recipeId"`

	IngredientID *id.ID `db:"ingredient_id" json:"ingredientId,omitempty"`
	SubRecipeID  *id.ID `db:"sub_recipe_id" json:"subRecipeId,omitempty"`

	// Qty is the amount consumed per one full batch of the parent's yield
	Qty types.Quantity `db:"qty" json:"qty"`

	Kind ItemKind `db:"kind" json:"kind"`
}

// New creates a new active Recipe.
func New(name string, yieldQty types.Quantity, yieldUnit string) *Recipe {
	return &Recipe{
		Catalog:   entity.NewCatalog(name),
		YieldQty:  yieldQty,
		YieldUnit: yieldUnit,
		Items:     make([]Item, 0),
	}
}

// AddIngredient appends an ingredient item.
func (r *Recipe) AddIngredient(ingredientID id.ID, qty types.Quantity, kind ItemKind) {
	r.Items = append(r.Items, Item{
		ID:           id.New(),
		RecipeID:     r.ID,
		IngredientID: &ingredientID,
		Qty:          qty,
		Kind:         kind,
	})
}

// AddSubRecipe appends a sub-recipe item.
func (r *Recipe) AddSubRecipe(subRecipeID id.ID, qty types.Quantity, kind ItemKind) {
	r.Items = append(r.Items, Item{
		ID:          id.New(),
		RecipeID:    r.ID,
		SubRecipeID: &subRecipeID,
		Qty:         qty,
		Kind:        kind,
	})
}

// Validate implements entity.Validatable.
func (r *Recipe) Validate(ctx context.Context) error {
	if err := r.Catalog.Validate(ctx); err != nil {
		return err
	}
	if !r.YieldQty.IsPositive() {
		return apperror.NewValidation("yield quantity must be positive").
			WithDetail("field", "yieldQty").
			WithDetail("value", r.YieldQty)
	}
	for i, item := range r.Items {
		if err := item.Validate(ctx); err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return appErr.WithDetail("item_index", i)
			}
			return err
		}
		// A recipe directly containing itself is always a cycle;
		// transitive cycles are caught during explosion.
		if item.SubRecipeID != nil && *item.SubRecipeID == r.ID {
			return apperror.NewCyclicRecipe(r.ID)
		}
	}
	return nil
}

// Validate checks the one-of invariant on the item target.
func (it *Item) Validate(ctx context.Context) error {
	hasIngredient := it.IngredientID != nil && !id.IsNil(*it.IngredientID)
	hasSubRecipe := it.SubRecipeID != nil && !id.IsNil(*it.SubRecipeID)

	if hasIngredient == hasSubRecipe {
		return apperror.NewValidation("recipe item must reference exactly one of ingredient or sub-recipe")
	}
	if !it.Qty.IsPositive() {
		return apperror.NewValidation("recipe item quantity must be positive").
			WithDetail("field", "qty")
	}
	if it.Kind != KindWeight && it.Kind != KindCount {
		return apperror.NewValidation("invalid item kind").
			WithDetail("field", "kind").
			WithDetail("value", string(it.Kind))
	}
	return nil
}

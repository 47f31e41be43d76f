package dto

import (
	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/core/types"
	"fornada/internal/domain/catalogs/recipe"
)

// --- Ingredients ---

// CreateIngredientRequest creates a new ingredient.
type CreateIngredientRequest struct {
	Name string `json:"name" binding:"required"`
	Unit string `json:"unit" binding:"required"`
}

// UpdateIngredientRequest updates an ingredient.
type UpdateIngredientRequest struct {
	Name     *string `json:"name"`
	Unit     *string `json:"unit"`
	IsActive *bool   `json:"isActive"`
	Version  int     `json:"version" binding:"required,min=1"`
}

// RecordPriceRequest appends a purchase price to the history.
type RecordPriceRequest struct {
	Price types.Money `json:"price" binding:"required"`
}

// --- Recipes ---

// RecipeItemRequest is one component line of a recipe.
// Exactly one of ingredientId or subRecipeId must be set.
type RecipeItemRequest struct {
	IngredientID *string        `json:"ingredientId"`
	SubRecipeID  *string        `json:"subRecipeId"`
	Qty          types.Quantity `json:"qty" binding:"required"`
	Kind         string         `json:"kind"`
}

// CreateRecipeRequest creates a new recipe.
type CreateRecipeRequest struct {
	Name      string              `json:"name" binding:"required"`
	YieldQty  types.Quantity      `json:"yieldQty" binding:"required"`
	YieldUnit string              `json:"yieldUnit"`
	Items     []RecipeItemRequest `json:"items"`
}

// UpdateRecipeRequest updates a recipe.
type UpdateRecipeRequest struct {
	Name      *string             `json:"name"`
	YieldQty  *types.Quantity     `json:"yieldQty"`
	YieldUnit *string             `json:"yieldUnit"`
	IsActive  *bool               `json:"isActive"`
	Items     []RecipeItemRequest `json:"items"`
	Version   int                 `json:"version" binding:"required,min=1"`
}

// ApplyItems replaces the recipe's component lines from request lines.
func ApplyItems(r *recipe.Recipe, items []RecipeItemRequest) error {
	r.Items = r.Items[:0]
	for i, it := range items {
		kind := recipe.ItemKind(it.Kind)
		if kind == "" {
			kind = recipe.KindWeight
		}
		switch {
		case it.IngredientID != nil:
			ingredientID, err := id.Parse(*it.IngredientID)
			if err != nil {
				return apperror.NewValidation("invalid ingredient id").
					WithDetail("lineNo", i+1)
			}
			r.AddIngredient(ingredientID, it.Qty, kind)
		case it.SubRecipeID != nil:
			subRecipeID, err := id.Parse(*it.SubRecipeID)
			if err != nil {
				return apperror.NewValidation("invalid sub-recipe id").
					WithDetail("lineNo", i+1)
			}
			r.AddSubRecipe(subRecipeID, it.Qty, kind)
		default:
			return apperror.NewValidation("item must reference an ingredient or a sub-recipe").
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}

// --- Products ---

// CreateProductRequest creates a new product.
type CreateProductRequest struct {
	Name        string       `json:"name" binding:"required"`
	RecipeID    *string      `json:"recipeId"`
	ManualPrice *types.Money `json:"manualPrice"`
}

// UpdateProductRequest updates a product.
type UpdateProductRequest struct {
	Name        *string      `json:"name"`
	RecipeID    *string      `json:"recipeId"`
	ManualPrice *types.Money `json:"manualPrice"`
	ClearPrice  bool         `json:"clearPrice"`
	IsActive    *bool        `json:"isActive"`
	Version     int          `json:"version" binding:"required,min=1"`
}

// --- Clients ---

// CreateClientRequest creates a new client.
type CreateClientRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// UpdateClientRequest updates a client.
type UpdateClientRequest struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Notes    *string `json:"notes"`
	IsActive *bool   `json:"isActive"`
	Version  int     `json:"version" binding:"required,min=1"`
}

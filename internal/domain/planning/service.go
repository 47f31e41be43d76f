// Package planning provides the read-mostly engines layered on stock:
// recipe explosion, weighted-average costing, and order requirement /
// shortage computation.
package planning

import (
	"context"

	"fornada/internal/core/id"
	"fornada/internal/core/tx"
	"fornada/internal/core/types"
	"fornada/internal/domain/catalogs/ingredient"
	"fornada/internal/domain/catalogs/product"
	"fornada/internal/domain/catalogs/recipe"
	"fornada/internal/domain/stock"
)

// defaultMaxRetries bounds the whole-order retry on consumption conflicts.
const defaultMaxRetries = 3

// RecipeSource supplies current recipe composition.
type RecipeSource interface {
	GetByID(ctx context.Context, recipeID id.ID) (*recipe.Recipe, error)
}

// ProductSource supplies product-to-recipe links.
type ProductSource interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
}

// IngredientSource supplies ingredient lookups and the price-history
// fallback used by costing.
type IngredientSource interface {
	GetByID(ctx context.Context, ingredientID id.ID) (*ingredient.Ingredient, error)
	LatestPrice(ctx context.Context, ingredientID id.ID) (types.Money, bool, error)
}

// StockSource supplies read-only lot state.
type StockSource interface {
	OpenLots(ctx context.Context, ingredientID id.ID) ([]stock.Lot, error)
	RemainingQuantity(ctx context.Context, ingredientID id.ID) (types.Quantity, error)
}

// Consumer draws stock within the caller's transaction.
// *stock.Service satisfies this.
type Consumer interface {
	ConsumeInTx(ctx context.Context, ingredientID id.ID, needed types.Quantity, orderID *id.ID, note string) (stock.ConsumeResult, error)
}

// Service combines the explosion, costing and requirement engines.
type Service struct {
	recipes     RecipeSource
	products    ProductSource
	ingredients IngredientSource
	stock       StockSource
	consumer    Consumer
	txManager   tx.Manager
	maxRetries  int
}

// NewService creates a new planning service.
func NewService(
	recipes RecipeSource,
	products ProductSource,
	ingredients IngredientSource,
	stockSource StockSource,
	consumer Consumer,
	txManager tx.Manager,
) *Service {
	return &Service{
		recipes:     recipes,
		products:    products,
		ingredients: ingredients,
		stock:       stockSource,
		consumer:    consumer,
		txManager:   txManager,
		maxRetries:  defaultMaxRetries,
	}
}

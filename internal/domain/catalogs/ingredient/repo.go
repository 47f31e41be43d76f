package ingredient

import (
	"context"

	"fornada/internal/core/id"
	"fornada/internal/core/types"
)

// Repository defines storage operations for ingredients and price history.
type Repository interface {
	Create(ctx context.Context, ing *Ingredient) error
	Update(ctx context.Context, ing *Ingredient) error
	GetByID(ctx context.Context, ingredientID id.ID) (*Ingredient, error)
	List(ctx context.Context, includeInactive bool) ([]Ingredient, error)

	// RecordPrice appends an entry to the price history.
	RecordPrice(ctx context.Context, price *Price) error

	// LatestPrice returns the most recently recorded price.
	// Returns found=false when no price was ever recorded.
	LatestPrice(ctx context.Context, ingredientID id.ID) (price types.Money, found bool, err error)
}

package orders

import (
	"context"

	"fornada/internal/core/id"
)

// ListFilter narrows order listings.
type ListFilter struct {
	Status   *string
	ClientID *id.ID
	Paid     *bool
	Limit    int
	Offset   int
}

// Repository defines storage operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error

	// Update writes the order head; items are saved separately.
	Update(ctx context.Context, order *Order) error

	// GetByID returns the order head without items.
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)

	List(ctx context.Context, filter ListFilter) ([]Order, error)

	// SaveItems replaces the order's item set.
	SaveItems(ctx context.Context, orderID id.ID, items []Item) error
	GetItems(ctx context.Context, orderID id.ID) ([]Item, error)
}

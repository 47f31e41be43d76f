package client

import (
	"context"

	"fornada/internal/core/id"
)

// Repository defines storage operations for clients.
type Repository interface {
	Create(ctx context.Context, c *Client) error
	Update(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, clientID id.ID) (*Client, error)
	List(ctx context.Context, includeInactive bool) ([]Client, error)
}

// Package client provides the Client catalog.
package client

import (
	"context"

	"fornada/internal/core/entity"
)

// Client is a customer that places orders.
type Client struct {
	entity.Catalog

	Phone   string `db:"phone" json:"phone,omitempty"`
	Address string `db:"address" json:"address,omitempty"`
	Notes   string `db:"notes" json:"notes,omitempty"`
}

// New creates a new active Client.
func New(name string) *Client {
	return &Client{Catalog: entity.NewCatalog(name)}
}

// Validate implements entity.Validatable.
func (c *Client) Validate(ctx context.Context) error {
	return c.Catalog.Validate(ctx)
}

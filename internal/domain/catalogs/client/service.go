package client

import (
	"context"

	"fornada/internal/core/id"
	"fornada/internal/core/tx"
)

// Service provides business operations for the Client catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new client service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create validates and stores a new client.
func (s *Service) Create(ctx context.Context, c *Client) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, c)
	})
}

// Update validates and stores changes to a client.
func (s *Service) Update(ctx context.Context, c *Client) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, c)
	})
}

// GetByID retrieves one client.
func (s *Service) GetByID(ctx context.Context, clientID id.ID) (*Client, error) {
	return s.repo.GetByID(ctx, clientID)
}

// List returns clients, optionally including deactivated ones.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]Client, error) {
	return s.repo.List(ctx, includeInactive)
}

// Deactivate marks a client as inactive.
func (s *Service) Deactivate(ctx context.Context, clientID id.ID) error {
	c, err := s.repo.GetByID(ctx, clientID)
	if err != nil {
		return err
	}
	c.Deactivate()
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, c)
	})
}

package recipe

import (
	"context"
	"fmt"

	"fornada/internal/core/id"
	"fornada/internal/core/tx"
	"fornada/pkg/logger"
)

// Service provides business operations for the Recipe catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new recipe service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create validates and stores a new recipe with its items.
func (s *Service) Create(ctx context.Context, r *Recipe) error {
	if err := r.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, r)
	})
	if err != nil {
		return fmt.Errorf("create recipe: %w", err)
	}

	logger.Info(ctx, "recipe created", "id", r.ID, "name", r.Name, "items", len(r.Items))
	return nil
}

// Update validates and replaces a recipe and its items.
// Explosion always reads the current composition, so editing a recipe
// affects future cost estimates but never recorded cost snapshots.
func (s *Service) Update(ctx context.Context, r *Recipe) error {
	if err := r.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, r)
	})
}

// GetByID retrieves a recipe with its items.
func (s *Service) GetByID(ctx context.Context, recipeID id.ID) (*Recipe, error) {
	return s.repo.GetByID(ctx, recipeID)
}

// List returns recipes, optionally including deactivated ones.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]Recipe, error) {
	return s.repo.List(ctx, includeInactive)
}

// Deactivate marks a recipe as unusable for new products.
func (s *Service) Deactivate(ctx context.Context, recipeID id.ID) error {
	r, err := s.repo.GetByID(ctx, recipeID)
	if err != nil {
		return err
	}
	r.Deactivate()
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, r)
	})
}

package ingredient

import (
	"context"
	"fmt"
	"time"

	"fornada/internal/core/id"
	"fornada/internal/core/tx"
	"fornada/internal/core/types"
	"fornada/pkg/logger"
)

// Service provides business operations for the Ingredient catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new ingredient service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create validates and stores a new ingredient.
func (s *Service) Create(ctx context.Context, ing *Ingredient) error {
	if err := ing.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, ing)
	})
	if err != nil {
		return fmt.Errorf("create ingredient: %w", err)
	}

	logger.Info(ctx, "ingredient created", "id", ing.ID, "name", ing.Name)
	return nil
}

// Update validates and stores changes to an ingredient.
// The unit of measure is part of the update: changing it does not convert
// existing lots, so callers should only change it before stock exists.
func (s *Service) Update(ctx context.Context, ing *Ingredient) error {
	if err := ing.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, ing)
	})
}

// GetByID retrieves one ingredient.
func (s *Service) GetByID(ctx context.Context, ingredientID id.ID) (*Ingredient, error) {
	return s.repo.GetByID(ctx, ingredientID)
}

// List returns ingredients, optionally including deactivated ones.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]Ingredient, error) {
	return s.repo.List(ctx, includeInactive)
}

// Deactivate marks an ingredient as unusable for new lots and recipes.
func (s *Service) Deactivate(ctx context.Context, ingredientID id.ID) error {
	ing, err := s.repo.GetByID(ctx, ingredientID)
	if err != nil {
		return err
	}
	ing.Deactivate()
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, ing)
	})
}

// RecordPrice appends a price observation to the ingredient's history.
// Called by the purchase-recording flow alongside lot creation.
func (s *Service) RecordPrice(ctx context.Context, ingredientID id.ID, price types.Money) error {
	if _, err := s.repo.GetByID(ctx, ingredientID); err != nil {
		return err
	}

	entry := &Price{
		ID:           id.New(),
		IngredientID: ingredientID,
		Price:        price,
		CreatedAt:    time.Now().UTC(),
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.RecordPrice(ctx, entry)
	})
}

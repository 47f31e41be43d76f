// Package catalog_repo provides PostgreSQL implementations of the
// catalog repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/core/types"
	"fornada/internal/domain/catalogs/ingredient"
	"fornada/internal/infrastructure/storage/postgres"
)

const (
	ingredientsTable = "cat_ingredients"
	pricesTable      = "cat_ingredient_prices"
)

// IngredientRepo implements ingredient.Repository.
type IngredientRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewIngredientRepo creates a new ingredient repository.
func NewIngredientRepo(txManager *postgres.TxManager) *IngredientRepo {
	return &IngredientRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ ingredient.Repository = (*IngredientRepo)(nil)

func (r *IngredientRepo) Create(ctx context.Context, ing *ingredient.Ingredient) error {
	q := r.builder.Insert(ingredientsTable).
		Columns("id", "name", "unit", "is_active", "version", "created_at").
		Values(ing.ID, ing.Name, ing.Unit, ing.IsActive, ing.Version, ing.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert ingredient: %w", err)
	}
	return nil
}

func (r *IngredientRepo) Update(ctx context.Context, ing *ingredient.Ingredient) error {
	q := r.builder.Update(ingredientsTable).
		Set("name", ing.Name).
		Set("unit", ing.Unit).
		Set("is_active", ing.IsActive).
		Set("version", ing.Version+1).
		Where(squirrel.Eq{"id": ing.ID, "version": ing.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update ingredient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, ing.ID); err != nil {
			return err
		}
		return apperror.NewConcurrentModification("ingredient", ing.ID.String())
	}
	ing.SetVersion(ing.Version + 1)
	return nil
}

func (r *IngredientRepo) GetByID(ctx context.Context, ingredientID id.ID) (*ingredient.Ingredient, error) {
	q := r.builder.Select("id", "name", "unit", "is_active", "version", "created_at").
		From(ingredientsTable).
		Where(squirrel.Eq{"id": ingredientID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ing ingredient.Ingredient
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &ing, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("ingredient", ingredientID.String())
		}
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	return &ing, nil
}

func (r *IngredientRepo) List(ctx context.Context, includeInactive bool) ([]ingredient.Ingredient, error) {
	q := r.builder.Select("id", "name", "unit", "is_active", "version", "created_at").
		From(ingredientsTable)
	if !includeInactive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	q = q.OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var list []ingredient.Ingredient
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &list, sql, args...); err != nil {
		return nil, fmt.Errorf("select ingredients: %w", err)
	}
	return list, nil
}

func (r *IngredientRepo) RecordPrice(ctx context.Context, price *ingredient.Price) error {
	q := r.builder.Insert(pricesTable).
		Columns("id", "ingredient_id", "price", "created_at").
		Values(price.ID, price.IngredientID, price.Price, price.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert price: %w", err)
	}
	return nil
}

func (r *IngredientRepo) LatestPrice(ctx context.Context, ingredientID id.ID) (types.Money, bool, error) {
	q := r.builder.Select("price").
		From(pricesTable).
		Where(squirrel.Eq{"ingredient_id": ingredientID}).
		OrderBy("created_at DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return types.ZeroMoney(), false, fmt.Errorf("build query: %w", err)
	}

	var price types.Money
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &price, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return types.ZeroMoney(), false, nil
		}
		return types.ZeroMoney(), false, fmt.Errorf("get latest price: %w", err)
	}
	return price, true, nil
}

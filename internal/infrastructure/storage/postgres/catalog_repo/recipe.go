package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/domain/catalogs/recipe"
	"fornada/internal/infrastructure/storage/postgres"
)

const (
	recipesTable     = "cat_recipes"
	recipeItemsTable = "cat_recipe_items"
)

// RecipeRepo implements recipe.Repository. Item sets are replaced
// wholesale on update; explosion always reads the full composition.
type RecipeRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewRecipeRepo creates a new recipe repository.
func NewRecipeRepo(txManager *postgres.TxManager) *RecipeRepo {
	return &RecipeRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ recipe.Repository = (*RecipeRepo)(nil)

func (r *RecipeRepo) Create(ctx context.Context, rec *recipe.Recipe) error {
	q := r.builder.Insert(recipesTable).
		Columns("id", "name", "yield_qty", "yield_unit", "is_active", "version", "created_at").
		Values(rec.ID, rec.Name, rec.YieldQty, rec.YieldUnit, rec.IsActive, rec.Version, rec.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}

	return r.saveItems(ctx, rec.ID, rec.Items)
}

func (r *RecipeRepo) Update(ctx context.Context, rec *recipe.Recipe) error {
	q := r.builder.Update(recipesTable).
		Set("name", rec.Name).
		Set("yield_qty", rec.YieldQty).
		Set("yield_unit", rec.YieldUnit).
		Set("is_active", rec.IsActive).
		Set("version", rec.Version+1).
		Where(squirrel.Eq{"id": rec.ID, "version": rec.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, rec.ID); err != nil {
			return err
		}
		return apperror.NewConcurrentModification("recipe", rec.ID.String())
	}
	rec.SetVersion(rec.Version + 1)

	return r.saveItems(ctx, rec.ID, rec.Items)
}

func (r *RecipeRepo) saveItems(ctx context.Context, recipeID id.ID, items []recipe.Item) error {
	querier := r.txManager.GetQuerier(ctx)

	delSQL, delArgs, err := r.builder.Delete(recipeItemsTable).
		Where(squirrel.Eq{"recipe_id": recipeID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := querier.Exec(ctx, delSQL, delArgs...); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	q := r.builder.Insert(recipeItemsTable).
		Columns("id", "recipe_id", "ingredient_id", "sub_recipe_id", "qty", "kind")
	for _, item := range items {
		q = q.Values(item.ID, recipeID, item.IngredientID, item.SubRecipeID, item.Qty, item.Kind)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}
	return nil
}

func (r *RecipeRepo) GetByID(ctx context.Context, recipeID id.ID) (*recipe.Recipe, error) {
	q := r.builder.Select("id", "name", "yield_qty", "yield_unit", "is_active", "version", "created_at").
		From(recipesTable).
		Where(squirrel.Eq{"id": recipeID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec recipe.Recipe
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("recipe", recipeID.String())
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	items, err := r.getItems(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	rec.Items = items
	return &rec, nil
}

func (r *RecipeRepo) getItems(ctx context.Context, recipeID id.ID) ([]recipe.Item, error) {
	q := r.builder.Select("id", "recipe_id", "ingredient_id", "sub_recipe_id", "qty", "kind").
		From(recipeItemsTable).
		Where(squirrel.Eq{"recipe_id": recipeID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := make([]recipe.Item, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	return items, nil
}

func (r *RecipeRepo) List(ctx context.Context, includeInactive bool) ([]recipe.Recipe, error) {
	q := r.builder.Select("id", "name", "yield_qty", "yield_unit", "is_active", "version", "created_at").
		From(recipesTable)
	if !includeInactive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	q = q.OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var list []recipe.Recipe
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &list, sql, args...); err != nil {
		return nil, fmt.Errorf("select recipes: %w", err)
	}

	for i := range list {
		items, err := r.getItems(ctx, list[i].ID)
		if err != nil {
			return nil, err
		}
		list[i].Items = items
	}
	return list, nil
}

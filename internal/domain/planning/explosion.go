package planning

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
)

// Explode recursively resolves a recipe into base ingredient quantities
// needed to produce factor units of its yield.
//
// Missing recipes and zero yields resolve to an empty map rather than an
// error, so a half-configured catalog never blocks order entry. A recipe
// that reaches itself through its sub-recipes is an error: the visited
// set on the recursion path guards against unbounded recursion.
//
// Explosion is a pure function of current recipe state; quantities are
// accumulated in decimal so scaling stays exactly linear.
func (s *Service) Explode(ctx context.Context, recipeID id.ID, factor decimal.Decimal) (map[id.ID]decimal.Decimal, error) {
	acc := make(map[id.ID]decimal.Decimal)
	path := make(map[id.ID]bool)
	if err := s.explodeInto(ctx, recipeID, factor, path, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *Service) explodeInto(ctx context.Context, recipeID id.ID, factor decimal.Decimal, path map[id.ID]bool, acc map[id.ID]decimal.Decimal) error {
	if path[recipeID] {
		return apperror.NewCyclicRecipe(recipeID)
	}

	r, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("load recipe: %w", err)
	}
	if !r.YieldQty.IsPositive() {
		// Zero yield would divide by zero; treat as empty composition.
		return nil
	}

	path[recipeID] = true
	defer delete(path, recipeID)

	scale := factor.Div(r.YieldQty.Decimal())
	for _, item := range r.Items {
		qty := item.Qty.Decimal().Mul(scale)
		switch {
		case item.IngredientID != nil:
			ingID := *item.IngredientID
			acc[ingID] = acc[ingID].Add(qty)
		case item.SubRecipeID != nil:
			if err := s.explodeInto(ctx, *item.SubRecipeID, qty, path, acc); err != nil {
				return err
			}
		}
	}
	return nil
}

package planning

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/core/types"
	"fornada/internal/domain/catalogs/ingredient"
	"fornada/internal/domain/stock"
)

// OrderLine is one product position to be fulfilled. Planning works on
// plain lines so it stays independent of order lifecycle state.
type OrderLine struct {
	ProductID id.ID
	Qty       types.Quantity
}

// Shortage reports one ingredient with insufficient stock for a demand.
type Shortage struct {
	Ingredient ingredient.Ingredient `json:"ingredient"`
	Missing    types.Quantity        `json:"missing"`
}

// RequiredIngredients aggregates base ingredient demand across all
// lines. Lines pointing at missing products, or products without a
// recipe, contribute nothing.
func (s *Service) RequiredIngredients(ctx context.Context, lines []OrderLine) (map[id.ID]types.Quantity, error) {
	acc := make(map[id.ID]decimal.Decimal)
	for _, line := range lines {
		if !line.Qty.IsPositive() {
			continue
		}
		p, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if apperror.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("load product: %w", err)
		}
		if !p.HasRecipe() {
			continue
		}
		perUnit, err := s.Explode(ctx, *p.RecipeID, decimal.NewFromInt(1))
		if err != nil {
			return nil, err
		}
		factor := line.Qty.Decimal()
		for ingredientID, qty := range perUnit {
			acc[ingredientID] = acc[ingredientID].Add(qty.Mul(factor))
		}
	}

	required := make(map[id.ID]types.Quantity, len(acc))
	for ingredientID, qty := range acc {
		required[ingredientID] = types.NewQuantityFromDecimal(qty)
	}
	return required, nil
}

// Shortages compares aggregated demand against remaining stock and
// returns only the ingredients that fall short, ordered by name.
// A shortage is an answer, not an error.
func (s *Service) Shortages(ctx context.Context, lines []OrderLine) ([]Shortage, error) {
	required, err := s.RequiredIngredients(ctx, lines)
	if err != nil {
		return nil, err
	}

	shortages := make([]Shortage, 0)
	for ingredientID, needed := range required {
		available, err := s.stock.RemainingQuantity(ctx, ingredientID)
		if err != nil {
			return nil, fmt.Errorf("remaining quantity: %w", err)
		}
		missing := needed - available
		if !missing.IsPositive() {
			continue
		}
		ing, err := s.ingredients.GetByID(ctx, ingredientID)
		if err != nil {
			return nil, fmt.Errorf("load ingredient: %w", err)
		}
		shortages = append(shortages, Shortage{Ingredient: *ing, Missing: missing})
	}

	sort.Slice(shortages, func(i, j int) bool {
		return shortages[i].Ingredient.Name < shortages[j].Ingredient.Name
	})
	return shortages, nil
}

// ConsumeForOrder draws FIFO stock for the whole order in a single
// transaction: either every ingredient's draw commits or none does.
// Shortfalls do not abort the transaction; they are reported per
// ingredient in the result. When commit is non-nil it runs inside the
// same transaction after all draws, so the caller can persist its own
// state atomically with the ledger writes; an error from it rolls the
// draws back. Concurrent conflicts retry the whole unit a bounded
// number of times.
func (s *Service) ConsumeForOrder(ctx context.Context, orderID id.ID, lines []OrderLine, commit func(ctx context.Context) error) (map[id.ID]stock.ConsumeResult, error) {
	required, err := s.RequiredIngredients(ctx, lines)
	if err != nil {
		return nil, err
	}

	// Stable draw order keeps lock acquisition deterministic across
	// concurrent orders.
	ingredientIDs := make([]id.ID, 0, len(required))
	for ingredientID := range required {
		ingredientIDs = append(ingredientIDs, ingredientID)
	}
	sort.Slice(ingredientIDs, func(i, j int) bool {
		return bytes.Compare(ingredientIDs[i][:], ingredientIDs[j][:]) < 0
	})

	note := fmt.Sprintf("order %s consumption", orderID)

	var results map[id.ID]stock.ConsumeResult
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		results = make(map[id.ID]stock.ConsumeResult, len(required))
		lastErr = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			for _, ingredientID := range ingredientIDs {
				res, err := s.consumer.ConsumeInTx(ctx, ingredientID, required[ingredientID], &orderID, note)
				if err != nil {
					return err
				}
				results[ingredientID] = res
			}
			if commit != nil {
				return commit(ctx)
			}
			return nil
		})
		if lastErr == nil {
			return results, nil
		}
		if !apperror.IsConcurrentModification(lastErr) {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

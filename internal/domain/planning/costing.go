package planning

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/core/types"
)

// AverageCost returns the weighted-average unit cost of the ingredient's
// remaining stock. With no open lots it falls back to the most recent
// recorded purchase price, and with no price history to zero.
//
// Costing never fails on missing data: zero is a valid "cost unknown"
// answer and callers treat it as such.
func (s *Service) AverageCost(ctx context.Context, ingredientID id.ID) (types.Money, error) {
	lots, err := s.stock.OpenLots(ctx, ingredientID)
	if err != nil {
		return types.ZeroMoney(), fmt.Errorf("load open lots: %w", err)
	}

	totalQty := decimal.Zero
	totalValue := decimal.Zero
	for _, lot := range lots {
		qty := lot.QtyRemaining.Decimal()
		totalQty = totalQty.Add(qty)
		totalValue = totalValue.Add(qty.Mul(lot.UnitCost))
	}
	if totalQty.IsPositive() {
		return totalValue.Div(totalQty), nil
	}

	price, found, err := s.ingredients.LatestPrice(ctx, ingredientID)
	if err != nil {
		return types.ZeroMoney(), fmt.Errorf("load latest price: %w", err)
	}
	if found {
		return price, nil
	}
	return types.ZeroMoney(), nil
}

// EstimateProductUnitCost prices one unit of a product by exploding its
// recipe and valuing each required ingredient at its current average
// cost. Products without a recipe cost zero.
func (s *Service) EstimateProductUnitCost(ctx context.Context, productID id.ID) (types.Money, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return types.ZeroMoney(), nil
		}
		return types.ZeroMoney(), fmt.Errorf("load product: %w", err)
	}
	if !p.HasRecipe() {
		return types.ZeroMoney(), nil
	}

	required, err := s.Explode(ctx, *p.RecipeID, decimal.NewFromInt(1))
	if err != nil {
		return types.ZeroMoney(), err
	}

	total := decimal.Zero
	for ingredientID, qty := range required {
		cost, err := s.AverageCost(ctx, ingredientID)
		if err != nil {
			return types.ZeroMoney(), err
		}
		total = total.Add(qty.Mul(cost))
	}
	return total, nil
}

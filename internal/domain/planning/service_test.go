package planning_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/core/tx"
	"fornada/internal/core/types"
	"fornada/internal/domain/catalogs/ingredient"
	"fornada/internal/domain/catalogs/product"
	"fornada/internal/domain/catalogs/recipe"
	"fornada/internal/domain/planning"
	"fornada/internal/domain/stock"
	"fornada/internal/infrastructure/storage/memory"
)

// planningFixture wires the planning service against in-memory storage
// with a small bakery catalog: a base dough recipe and a tart recipe
// that includes the dough as a sub-recipe.
type planningFixture struct {
	service     *planning.Service
	stock       *stock.Service
	ingredients *memory.IngredientRepository
	recipes     *memory.RecipeRepository
	products    *memory.ProductRepository

	flour  *ingredient.Ingredient
	butter *ingredient.Ingredient
	egg    *ingredient.Ingredient

	dough *recipe.Recipe
	tart  *recipe.Recipe
}

func newPlanningFixture(t *testing.T) *planningFixture {
	return newPlanningFixtureWith(t, memory.NewTxManager(), nil)
}

// newPlanningFixtureWith lets a test swap the transaction manager and
// wrap the stock repository.
func newPlanningFixtureWith(t *testing.T, txm tx.Manager, wrapStock func(stock.Repository) stock.Repository) *planningFixture {
	t.Helper()
	ctx := context.Background()

	ingredients := memory.NewIngredientRepository()
	recipes := memory.NewRecipeRepository()
	products := memory.NewProductRepository()
	var stockRepo stock.Repository = memory.NewStockRepository()
	if wrapStock != nil {
		stockRepo = wrapStock(stockRepo)
	}

	stockService := stock.NewService(ingredients, stockRepo, txm)
	service := planning.NewService(recipes, products, ingredients, stockService, stockService, txm)

	f := &planningFixture{
		service:     service,
		stock:       stockService,
		ingredients: ingredients,
		recipes:     recipes,
		products:    products,
	}

	f.flour = ingredient.New("Flour", "g")
	f.butter = ingredient.New("Butter", "g")
	f.egg = ingredient.New("Egg", "un")
	for _, ing := range []*ingredient.Ingredient{f.flour, f.butter, f.egg} {
		require.NoError(t, ingredients.Create(ctx, ing))
	}

	// One batch of dough yields 1000 g from 600 g flour + 300 g butter.
	f.dough = recipe.New("Shortcrust Dough", qty(1000), "g")
	f.dough.AddIngredient(f.flour.ID, qty(600), recipe.KindWeight)
	f.dough.AddIngredient(f.butter.ID, qty(300), recipe.KindWeight)
	require.NoError(t, recipes.Create(ctx, f.dough))

	// One batch of tarts yields 8 pieces from 500 g dough + 2 eggs.
	f.tart = recipe.New("Berry Tart", qty(8), "un")
	f.tart.AddSubRecipe(f.dough.ID, qty(500), recipe.KindWeight)
	f.tart.AddIngredient(f.egg.ID, qty(2), recipe.KindCount)
	require.NoError(t, recipes.Create(ctx, f.tart))

	return f
}

func qty(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

func (f *planningFixture) addProduct(t *testing.T, name string, recipeID *id.ID) *product.Product {
	t.Helper()
	p := product.New(name)
	p.RecipeID = recipeID
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *planningFixture) addLot(t *testing.T, ing *ingredient.Ingredient, quantity float64, unitCost string) {
	t.Helper()
	_, err := f.stock.CreateLot(context.Background(), ing.ID, qty(quantity), ing.Unit, types.MustMoney(unitCost), nil, "")
	require.NoError(t, err)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)), "want %s, got %s", want, got)
}

func TestExplode_Simple(t *testing.T) {
	f := newPlanningFixture(t)

	// Half a batch of dough scales every component by 500/1000.
	required, err := f.service.Explode(context.Background(), f.dough.ID, decimal.NewFromInt(500))
	require.NoError(t, err)
	require.Len(t, required, 2)
	requireDecimal(t, "300", required[f.flour.ID])
	requireDecimal(t, "150", required[f.butter.ID])
}

func TestExplode_Nested(t *testing.T) {
	f := newPlanningFixture(t)

	// One full batch of 8 tarts: 500 g dough resolves through the
	// sub-recipe into 300 g flour and 150 g butter.
	required, err := f.service.Explode(context.Background(), f.tart.ID, decimal.NewFromInt(8))
	require.NoError(t, err)
	require.Len(t, required, 3)
	requireDecimal(t, "300", required[f.flour.ID])
	requireDecimal(t, "150", required[f.butter.ID])
	requireDecimal(t, "2", required[f.egg.ID])
}

func TestExplode_Linearity(t *testing.T) {
	f := newPlanningFixture(t)
	ctx := context.Background()

	one, err := f.service.Explode(ctx, f.tart.ID, decimal.NewFromInt(1))
	require.NoError(t, err)
	three, err := f.service.Explode(ctx, f.tart.ID, decimal.NewFromInt(3))
	require.NoError(t, err)

	// Decimal accumulation keeps scaling exactly linear, fractional
	// intermediate quantities included.
	for ingredientID, perUnit := range one {
		require.True(t, three[ingredientID].Equal(perUnit.Mul(decimal.NewFromInt(3))),
			"ingredient %s: %s * 3 != %s", ingredientID, perUnit, three[ingredientID])
	}
}

func TestExplode_Cycle(t *testing.T) {
	f := newPlanningFixture(t)
	ctx := context.Background()

	// dough -> tart -> dough closes a transitive cycle.
	f.dough.AddSubRecipe(f.tart.ID, qty(100), recipe.KindWeight)
	require.NoError(t, f.recipes.Update(ctx, f.dough))

	_, err := f.service.Explode(ctx, f.tart.ID, decimal.NewFromInt(1))
	require.True(t, apperror.IsCyclicRecipe(err), "got %v", err)
}

func TestExplode_SharedSubRecipeIsNotACycle(t *testing.T) {
	f := newPlanningFixture(t)
	ctx := context.Background()

	// A diamond: the box uses dough twice, directly and through the
	// tart. Revisiting off the recursion path is aggregation, not a cycle.
	box := recipe.New("Tart Box", qty(1), "un")
	box.AddSubRecipe(f.tart.ID, qty(1), recipe.KindCount)
	box.AddSubRecipe(f.dough.ID, qty(200), recipe.KindWeight)
	require.NoError(t, f.recipes.Create(ctx, box))

	required, err := f.service.Explode(ctx, box.ID, decimal.NewFromInt(1))
	require.NoError(t, err)
	// tart path: 500/8 g dough -> 37.5 g flour; direct path: 120 g flour.
	requireDecimal(t, "157.5", required[f.flour.ID])
}

func TestExplode_MissingAndZeroYield(t *testing.T) {
	f := newPlanningFixture(t)
	ctx := context.Background()

	required, err := f.service.Explode(ctx, id.New(), decimal.NewFromInt(1))
	require.NoError(t, err, "missing recipe resolves to empty, not an error")
	require.Empty(t, required)

	broken := recipe.New("Broken", qty(0), "g")
	broken.AddIngredient(f.flour.ID, qty(100), recipe.KindWeight)
	require.NoError(t, f.recipes.Create(ctx, broken))

	required, err = f.service.Explode(ctx, broken.ID, decimal.NewFromInt(1))
	require.NoError(t, err)
	require.Empty(t, required)
}

func TestAverageCost_Weighted(t *testing.T) {
	f := newPlanningFixture(t)

	f.addLot(t, f.flour, 100, "2.00")
	f.addLot(t, f.flour, 300, "1.00")

	cost, err := f.service.AverageCost(context.Background(), f.flour.ID)
	require.NoError(t, err)
	// (100*2 + 300*1) / 400
	requireDecimal(t, "1.25", cost)
}

func TestAverageCost_Fallbacks(t *testing.T) {
	f := newPlanningFixture(t)
	ctx := context.Background()

	// No lots, no price history: cost unknown is zero.
	cost, err := f.service.AverageCost(ctx, f.flour.ID)
	require.NoError(t, err)
	require.True(t, cost.IsZero())

	// Price history fills in when the shelf is empty.
	require.NoError(t, f.ingredients.RecordPrice(ctx, &ingredient.Price{
		ID:           id.New(),
		IngredientID: f.flour.ID,
		Price:        types.MustMoney("0.0030"),
	}))
	cost, err = f.service.AverageCost(ctx, f.flour.ID)
	require.NoError(t, err)
	requireDecimal(t, "0.0030", cost)

	// Open stock takes precedence over the price history.
	f.addLot(t, f.flour, 500, "0.0020")
	cost, err = f.service.AverageCost(ctx, f.flour.ID)
	require.NoError(t, err)
	requireDecimal(t, "0.0020", cost)
}

func TestEstimateProductUnitCost(t *testing.T) {
	f := newPlanningFixture(t)
	ctx := context.Background()

	f.addLot(t, f.flour, 5000, "0.002")
	f.addLot(t, f.butter, 2000, "0.012")
	f.addLot(t, f.egg, 30, "0.45")

	tartProduct := f.addProduct(t, "Berry Tart", &f.tart.ID)

	// Per tart: 37.5 g flour, 18.75 g butter, 0.25 egg.
	cost, err := f.service.EstimateProductUnitCost(ctx, tartProduct.ID)
	require.NoError(t, err)
	// 37.5*0.002 + 18.75*0.012 + 0.25*0.45 = 0.075 + 0.225 + 0.1125
	requireDecimal(t, "0.4125", cost)

	// Products without a recipe cost zero.
	plain := f.addProduct(t, "Gift Box", nil)
	cost, err = f.service.EstimateProductUnitCost(ctx, plain.ID)
	require.NoError(t, err)
	require.True(t, cost.IsZero())

	// Unknown products too; order entry never blocks on catalog gaps.
	cost, err = f.service.EstimateProductUnitCost(ctx, id.New())
	require.NoError(t, err)
	require.True(t, cost.IsZero())
}

func TestRequiredIngredients(t *testing.T) {
	f := newPlanningFixture(t)

	tartProduct := f.addProduct(t, "Berry Tart", &f.tart.ID)
	plain := f.addProduct(t, "Gift Box", nil)

	lines := []planning.OrderLine{
		{ProductID: tartProduct.ID, Qty: qty(16)},
		{ProductID: plain.ID, Qty: qty(3)},  // no recipe, contributes nothing
		{ProductID: id.New(), Qty: qty(2)},  // missing product, skipped
		{ProductID: tartProduct.ID, Qty: 0}, // non-positive line, skipped
	}

	required, err := f.service.RequiredIngredients(context.Background(), lines)
	require.NoError(t, err)
	require.Len(t, required, 3)
	require.Equal(t, qty(600), required[f.flour.ID])
	require.Equal(t, qty(300), required[f.butter.ID])
	require.Equal(t, qty(4), required[f.egg.ID])
}

func TestShortages(t *testing.T) {
	f := newPlanningFixture(t)
	ctx := context.Background()

	tartProduct := f.addProduct(t, "Berry Tart", &f.tart.ID)

	// Enough butter, short on flour and eggs for 16 tarts.
	f.addLot(t, f.flour, 100, "0.002")
	f.addLot(t, f.butter, 2000, "0.012")

	shortages, err := f.service.Shortages(ctx, []planning.OrderLine{
		{ProductID: tartProduct.ID, Qty: qty(16)},
	})
	require.NoError(t, err)
	require.Len(t, shortages, 2)

	// Ordered by ingredient name: Egg before Flour.
	require.Equal(t, "Egg", shortages[0].Ingredient.Name)
	require.Equal(t, qty(4), shortages[0].Missing)
	require.Equal(t, "Flour", shortages[1].Ingredient.Name)
	require.Equal(t, qty(500), shortages[1].Missing)
}

func TestShortages_NoneWhenStocked(t *testing.T) {
	f := newPlanningFixture(t)

	tartProduct := f.addProduct(t, "Berry Tart", &f.tart.ID)
	f.addLot(t, f.flour, 5000, "0.002")
	f.addLot(t, f.butter, 2000, "0.012")
	f.addLot(t, f.egg, 30, "0.45")

	shortages, err := f.service.Shortages(context.Background(), []planning.OrderLine{
		{ProductID: tartProduct.ID, Qty: qty(8)},
	})
	require.NoError(t, err)
	require.Empty(t, shortages)
}

func TestConsumeForOrder(t *testing.T) {
	f := newPlanningFixture(t)
	ctx := context.Background()

	tartProduct := f.addProduct(t, "Berry Tart", &f.tart.ID)
	f.addLot(t, f.flour, 5000, "0.002")
	f.addLot(t, f.butter, 100, "0.012") // short: 16 tarts need 300 g
	f.addLot(t, f.egg, 30, "0.45")

	orderID := id.New()
	results, err := f.service.ConsumeForOrder(ctx, orderID, []planning.OrderLine{
		{ProductID: tartProduct.ID, Qty: qty(16)},
	}, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.Equal(t, qty(600), results[f.flour.ID].Consumed)
	require.True(t, results[f.flour.ID].Shortfall.IsZero())

	require.Equal(t, qty(100), results[f.butter.ID].Consumed)
	require.Equal(t, qty(200), results[f.butter.ID].Shortfall)

	// Every draw is tagged with the order in the ledger.
	outKind := stock.MoveOut
	moves, err := f.stock.Ledger(ctx, f.flour.ID, stock.MoveFilter{Kind: &outKind, OrderID: &orderID})
	require.NoError(t, err)
	require.Len(t, moves, 1)
	require.Equal(t, qty(600), moves[0].Qty)
}

// txMarkKey marks contexts passed into transaction bodies.
type txMarkKey struct{}

// markingTxManager tags the context while a transaction body runs so a
// test can assert a write happened inside the transaction.
type markingTxManager struct {
	inner tx.Manager
}

func (m *markingTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.inner.RunInTransaction(context.WithValue(ctx, txMarkKey{}, true), fn)
}

// flakyStockRepository fails UpdateLotQuantities with a version conflict
// a set number of times before delegating.
type flakyStockRepository struct {
	stock.Repository
	conflicts int
	updates   int
}

func (r *flakyStockRepository) UpdateLotQuantities(ctx context.Context, lotID id.ID, version int, qtyTotal, qtyRemaining types.Quantity) error {
	r.updates++
	if r.conflicts > 0 {
		r.conflicts--
		return apperror.NewConcurrentModification("lot", lotID)
	}
	return r.Repository.UpdateLotQuantities(ctx, lotID, version, qtyTotal, qtyRemaining)
}

func (f *planningFixture) addBunProduct(t *testing.T) *product.Product {
	t.Helper()
	bun := recipe.New("Bun", qty(1), "un")
	bun.AddIngredient(f.flour.ID, qty(100), recipe.KindWeight)
	require.NoError(t, f.recipes.Create(context.Background(), bun))
	return f.addProduct(t, "Bun", &bun.ID)
}

func TestConsumeForOrder_CommitJoinsDrawTransaction(t *testing.T) {
	txm := &markingTxManager{inner: memory.NewTxManager()}
	f := newPlanningFixtureWith(t, txm, nil)
	ctx := context.Background()

	bunProduct := f.addBunProduct(t)
	f.addLot(t, f.flour, 1000, "0.002")

	var commits int
	var sawTx bool
	results, err := f.service.ConsumeForOrder(ctx, id.New(), []planning.OrderLine{
		{ProductID: bunProduct.ID, Qty: qty(2)},
	}, func(ctx context.Context) error {
		commits++
		sawTx = ctx.Value(txMarkKey{}) != nil
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, qty(200), results[f.flour.ID].Consumed)

	require.Equal(t, 1, commits)
	require.True(t, sawTx, "commit step must run inside the draw transaction")
}

func TestConsumeForOrder_CommitFailureAbortsCall(t *testing.T) {
	f := newPlanningFixture(t)
	ctx := context.Background()

	bunProduct := f.addBunProduct(t)
	f.addLot(t, f.flour, 1000, "0.002")

	var commits int
	results, err := f.service.ConsumeForOrder(ctx, id.New(), []planning.OrderLine{
		{ProductID: bunProduct.ID, Qty: qty(2)},
	}, func(ctx context.Context) error {
		commits++
		return errors.New("head write failed")
	})
	require.Error(t, err)
	require.Nil(t, results)
	require.Equal(t, 1, commits, "a non-conflict failure is not retried")
}

func TestConsumeForOrder_RetriesWholeOrderOnConflict(t *testing.T) {
	flaky := &flakyStockRepository{conflicts: 1}
	f := newPlanningFixtureWith(t, memory.NewTxManager(), func(repo stock.Repository) stock.Repository {
		flaky.Repository = repo
		return flaky
	})
	ctx := context.Background()

	bunProduct := f.addBunProduct(t)
	f.addLot(t, f.flour, 1000, "0.002")

	orderID := id.New()
	results, err := f.service.ConsumeForOrder(ctx, orderID, []planning.OrderLine{
		{ProductID: bunProduct.ID, Qty: qty(2)},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, qty(200), results[f.flour.ID].Consumed)
	require.True(t, results[f.flour.ID].Shortfall.IsZero())

	// One lost race, one clean pass.
	require.Equal(t, 2, flaky.updates)

	remaining, err := f.stock.RemainingQuantity(ctx, f.flour.ID)
	require.NoError(t, err)
	require.Equal(t, qty(800), remaining)

	outKind := stock.MoveOut
	moves, err := f.stock.Ledger(ctx, f.flour.ID, stock.MoveFilter{Kind: &outKind})
	require.NoError(t, err)
	require.Len(t, moves, 1, "the aborted attempt leaves no ledger entries")
}

func TestConsumeForOrder_SurfacesConflictAfterBoundedRetries(t *testing.T) {
	flaky := &flakyStockRepository{conflicts: 100}
	f := newPlanningFixtureWith(t, memory.NewTxManager(), func(repo stock.Repository) stock.Repository {
		flaky.Repository = repo
		return flaky
	})
	ctx := context.Background()

	bunProduct := f.addBunProduct(t)
	f.addLot(t, f.flour, 1000, "0.002")

	var commits int
	results, err := f.service.ConsumeForOrder(ctx, id.New(), []planning.OrderLine{
		{ProductID: bunProduct.ID, Qty: qty(2)},
	}, func(ctx context.Context) error {
		commits++
		return nil
	})
	require.Error(t, err)
	require.True(t, apperror.IsConcurrentModification(err))
	require.Nil(t, results)

	require.Equal(t, 3, flaky.updates, "the whole order retries a bounded number of times")
	require.Equal(t, 0, commits, "the commit step never runs for a failed order")

	remaining, err := f.stock.RemainingQuantity(ctx, f.flour.ID)
	require.NoError(t, err)
	require.Equal(t, qty(1000), remaining, "nothing is drawn")

	outKind := stock.MoveOut
	moves, err := f.stock.Ledger(ctx, f.flour.ID, stock.MoveFilter{Kind: &outKind})
	require.NoError(t, err)
	require.Empty(t, moves, "no partial ledger writes survive")
}

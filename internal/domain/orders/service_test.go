package orders_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/core/tx"
	"fornada/internal/core/types"
	"fornada/internal/domain/catalogs/client"
	"fornada/internal/domain/catalogs/ingredient"
	"fornada/internal/domain/catalogs/product"
	"fornada/internal/domain/catalogs/recipe"
	"fornada/internal/domain/orders"
	"fornada/internal/domain/planning"
	"fornada/internal/domain/settings"
	"fornada/internal/domain/stock"
	"fornada/internal/infrastructure/storage/memory"
)

// orderFixture wires the full order flow against in-memory storage:
// catalog, stock, planning, settings and numbering.
type orderFixture struct {
	service  *orders.Service
	stock    *stock.Service
	settings *memory.SettingsRepository

	flour *ingredient.Ingredient
	bread *recipe.Recipe
	loaf  *product.Product // recipe-backed, margin-priced
	box   *product.Product // manually priced
	cafe  *client.Client
}

func newOrderFixture(t *testing.T) *orderFixture {
	return newOrderFixtureWith(t, memory.NewTxManager(), nil)
}

// newOrderFixtureWith lets a test swap the transaction manager and wrap
// the order repository.
func newOrderFixtureWith(t *testing.T, txm tx.Manager, wrapOrders func(orders.Repository) orders.Repository) *orderFixture {
	t.Helper()
	ctx := context.Background()

	ingredients := memory.NewIngredientRepository()
	recipes := memory.NewRecipeRepository()
	products := memory.NewProductRepository()
	clients := memory.NewClientRepository()
	stockRepo := memory.NewStockRepository()
	var orderRepo orders.Repository = memory.NewOrderRepository()
	if wrapOrders != nil {
		orderRepo = wrapOrders(orderRepo)
	}
	settingsRepo := memory.NewSettingsRepository()

	stockService := stock.NewService(ingredients, stockRepo, txm)
	planningService := planning.NewService(recipes, products, ingredients, stockService, stockService, txm)
	settingsService := settings.NewService(settingsRepo)
	orderService := orders.NewService(orderRepo, products, planningService, settingsService, memory.NewNumberer(), txm)

	f := &orderFixture{
		service:  orderService,
		stock:    stockService,
		settings: settingsRepo,
	}

	f.flour = ingredient.New("Flour", "g")
	require.NoError(t, ingredients.Create(ctx, f.flour))

	// One loaf takes 500 g flour.
	f.bread = recipe.New("Bread", qty(1), "un")
	f.bread.AddIngredient(f.flour.ID, qty(500), recipe.KindWeight)
	require.NoError(t, recipes.Create(ctx, f.bread))

	f.loaf = product.New("Loaf")
	f.loaf.RecipeID = &f.bread.ID
	require.NoError(t, products.Create(ctx, f.loaf))

	boxPrice := types.MustMoney("4.50")
	f.box = product.New("Gift Box")
	f.box.ManualPrice = &boxPrice
	require.NoError(t, products.Create(ctx, f.box))

	f.cafe = client.New("Cafe Aurora")
	require.NoError(t, clients.Create(ctx, f.cafe))

	// Flour at 0.002 per gram: one loaf costs 1.00.
	_, err := stockService.CreateLot(ctx, f.flour.ID, qty(10000), "g", types.MustMoney("0.002"), nil, "")
	require.NoError(t, err)

	return f
}

func qty(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

func TestCreate_Pricing(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order := orders.NewOrder(f.cafe.ID, "")
	order.AddItem(f.loaf.ID, qty(3))
	order.AddItem(f.box.ID, qty(2))
	require.NoError(t, f.service.Create(ctx, order))

	require.Equal(t, settings.DefaultStages[0], order.Status, "empty stage defaults to the first")
	require.Len(t, order.Items, 2)

	// Recipe-backed line: price = cost * (1 + margin), cost frozen.
	loafLine := order.Items[0]
	require.True(t, loafLine.UnitCostSnapshot.Equal(types.MustMoney("1.00")), "got %s", loafLine.UnitCostSnapshot)
	require.True(t, loafLine.UnitPrice.Equal(types.MustMoney("1.50")), "got %s", loafLine.UnitPrice)

	// Manual price wins over the margin; zero cost for recipe-less goods.
	boxLine := order.Items[1]
	require.True(t, boxLine.UnitPrice.Equal(types.MustMoney("4.50")))
	require.True(t, boxLine.UnitCostSnapshot.IsZero())

	// 3 * 1.50 + 2 * 4.50
	require.True(t, order.Total.Equal(types.MustMoney("13.50")), "got %s", order.Total)
}

func TestCreate_ExplicitPriceIsKept(t *testing.T) {
	f := newOrderFixture(t)

	order := orders.NewOrder(f.cafe.ID, "")
	order.AddItem(f.loaf.ID, qty(1))
	order.Items[0].UnitPrice = types.MustMoney("9.99")
	require.NoError(t, f.service.Create(context.Background(), order))

	require.True(t, order.Items[0].UnitPrice.Equal(types.MustMoney("9.99")), "agreed price is not overwritten")
	require.True(t, order.Items[0].UnitCostSnapshot.Equal(types.MustMoney("1.00")), "cost snapshot is still taken")
}

func TestCreate_AssignsSequentialNumbers(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	first := orders.NewOrder(f.cafe.ID, "")
	first.AddItem(f.box.ID, qty(1))
	require.NoError(t, f.service.Create(ctx, first))

	second := orders.NewOrder(f.cafe.ID, "")
	second.AddItem(f.box.ID, qty(1))
	require.NoError(t, f.service.Create(ctx, second))

	require.True(t, strings.HasPrefix(first.Number, "ORD-"), "got %s", first.Number)
	require.True(t, strings.HasSuffix(first.Number, "-00001"), "got %s", first.Number)
	require.True(t, strings.HasSuffix(second.Number, "-00002"), "got %s", second.Number)
}

func TestCreate_Validation(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	empty := orders.NewOrder(f.cafe.ID, "")
	require.Error(t, f.service.Create(ctx, empty), "no items")

	noClient := orders.NewOrder(id.Nil(), "")
	noClient.AddItem(f.box.ID, qty(1))
	require.Error(t, f.service.Create(ctx, noClient))

	badStage := orders.NewOrder(f.cafe.ID, "shipped")
	badStage.AddItem(f.box.ID, qty(1))
	require.Error(t, f.service.Create(ctx, badStage), "stage not in the pipeline")

	badQty := orders.NewOrder(f.cafe.ID, "")
	badQty.AddItem(f.box.ID, qty(0))
	require.Error(t, f.service.Create(ctx, badQty))
}

func TestMoveStage_ConsumesOnce(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order := orders.NewOrder(f.cafe.ID, "")
	order.AddItem(f.loaf.ID, qty(4))
	require.NoError(t, f.service.Create(ctx, order))

	// Entering the consume stage draws 4 * 500 g of flour.
	results, err := f.service.MoveStage(ctx, order.ID, settings.DefaultConsumeStage)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, qty(2000), results[f.flour.ID].Consumed)

	remaining, err := f.stock.RemainingQuantity(ctx, f.flour.ID)
	require.NoError(t, err)
	require.Equal(t, qty(8000), remaining)

	stored, err := f.service.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, stored.Consumed())
	require.Equal(t, settings.DefaultConsumeStage, stored.Status)

	// Bouncing through the stage again must not draw twice.
	results, err = f.service.MoveStage(ctx, order.ID, "ready")
	require.NoError(t, err)
	require.Nil(t, results)
	results, err = f.service.MoveStage(ctx, order.ID, settings.DefaultConsumeStage)
	require.NoError(t, err)
	require.Nil(t, results)

	remaining, err = f.stock.RemainingQuantity(ctx, f.flour.ID)
	require.NoError(t, err)
	require.Equal(t, qty(8000), remaining)
}

func TestMoveStage_UnknownStage(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order := orders.NewOrder(f.cafe.ID, "")
	order.AddItem(f.box.ID, qty(1))
	require.NoError(t, f.service.Create(ctx, order))

	_, err := f.service.MoveStage(ctx, order.ID, "shipped")
	require.Error(t, err)
}

func TestMoveStage_OtherStagesDoNotConsume(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order := orders.NewOrder(f.cafe.ID, "")
	order.AddItem(f.loaf.ID, qty(1))
	require.NoError(t, f.service.Create(ctx, order))

	results, err := f.service.MoveStage(ctx, order.ID, "ready")
	require.NoError(t, err)
	require.Nil(t, results)

	remaining, err := f.stock.RemainingQuantity(ctx, f.flour.ID)
	require.NoError(t, err)
	require.Equal(t, qty(10000), remaining)
}

func TestUpdate_FrozenAfterConsumption(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order := orders.NewOrder(f.cafe.ID, "")
	order.AddItem(f.loaf.ID, qty(2))
	require.NoError(t, f.service.Create(ctx, order))

	_, err := f.service.MoveStage(ctx, order.ID, settings.DefaultConsumeStage)
	require.NoError(t, err)

	stored, err := f.service.GetByID(ctx, order.ID)
	require.NoError(t, err)
	stored.Notes = "changed my mind"

	err = f.service.Update(ctx, stored)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestUpdate_RecalculatesTotal(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order := orders.NewOrder(f.cafe.ID, "")
	order.AddItem(f.box.ID, qty(1))
	require.NoError(t, f.service.Create(ctx, order))

	stored, err := f.service.GetByID(ctx, order.ID)
	require.NoError(t, err)
	stored.Items[0].Qty = qty(3)
	require.NoError(t, f.service.Update(ctx, stored))

	after, err := f.service.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, after.Total.Equal(types.MustMoney("13.50")), "got %s", after.Total)
}

func TestMarkPaid(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order := orders.NewOrder(f.cafe.ID, "")
	order.AddItem(f.box.ID, qty(1))
	require.NoError(t, f.service.Create(ctx, order))

	require.NoError(t, f.service.MarkPaid(ctx, order.ID, true))
	stored, err := f.service.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, stored.Paid)

	require.NoError(t, f.service.MarkPaid(ctx, order.ID, false))
	stored, err = f.service.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.False(t, stored.Paid)
}

func TestShortages_ForOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	// 30 loaves need 15 kg; only 10 kg on hand.
	order := orders.NewOrder(f.cafe.ID, "")
	order.AddItem(f.loaf.ID, qty(30))
	require.NoError(t, f.service.Create(ctx, order))

	shortages, err := f.service.Shortages(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, shortages, 1)
	require.Equal(t, f.flour.ID, shortages[0].Ingredient.ID)
	require.Equal(t, qty(5000), shortages[0].Missing)
}

func TestRequiredIngredients_ForOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order := orders.NewOrder(f.cafe.ID, "")
	order.AddItem(f.loaf.ID, qty(6))
	order.AddItem(f.box.ID, qty(2))
	require.NoError(t, f.service.Create(ctx, order))

	required, err := f.service.RequiredIngredients(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, required, 1)
	require.Equal(t, qty(3000), required[f.flour.ID])
}

func TestCreate_CustomMargin(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	cfg := settings.DefaultConfig()
	cfg.MarginDefault = types.MustMoney("0.2")
	require.NoError(t, f.settings.Save(ctx, cfg))

	order := orders.NewOrder(f.cafe.ID, "")
	order.AddItem(f.loaf.ID, qty(1))
	require.NoError(t, f.service.Create(ctx, order))

	require.True(t, order.Items[0].UnitPrice.Equal(types.MustMoney("1.20")), "got %s", order.Items[0].UnitPrice)
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

// consumedHeadRecorder notes whether the head write carrying the
// consumed-at mark ran inside a transaction.
type consumedHeadRecorder struct {
	orders.Repository
	consumedWriteInTx *bool
}

func (r *consumedHeadRecorder) Update(ctx context.Context, o *orders.Order) error {
	if o.Consumed() {
		*r.consumedWriteInTx = ctx.Value(txMarkKey{}) != nil
	}
	return r.Repository.Update(ctx, o)
}

// failingOnceOrderRepo fails the first head write that carries the
// consumed-at mark, simulating a transient storage error mid-move.
type failingOnceOrderRepo struct {
	orders.Repository
	failed bool
}

func (r *failingOnceOrderRepo) Update(ctx context.Context, o *orders.Order) error {
	if o.Consumed() && !r.failed {
		r.failed = true
		return errors.New("connection reset")
	}
	return r.Repository.Update(ctx, o)
}

// stubPlanner drives MoveStage without real stock. It mirrors the
// consumption contract: the draw counts only when the whole unit,
// the caller's commit step included, succeeds.
type stubPlanner struct {
	draws   int
	results map[id.ID]stock.ConsumeResult
}

func (p *stubPlanner) EstimateProductUnitCost(ctx context.Context, productID id.ID) (types.Money, error) {
	return types.ZeroMoney(), nil
}

func (p *stubPlanner) RequiredIngredients(ctx context.Context, lines []planning.OrderLine) (map[id.ID]types.Quantity, error) {
	return map[id.ID]types.Quantity{}, nil
}

func (p *stubPlanner) Shortages(ctx context.Context, lines []planning.OrderLine) ([]planning.Shortage, error) {
	return nil, nil
}

func (p *stubPlanner) ConsumeForOrder(ctx context.Context, orderID id.ID, lines []planning.OrderLine, commit func(ctx context.Context) error) (map[id.ID]stock.ConsumeResult, error) {
	if commit != nil {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}
	p.draws++
	return p.results, nil
}

func TestMoveStage_ConsumedHeadCommitsWithDraws(t *testing.T) {
	var inTx bool
	f := newOrderFixtureWith(t,
		&markingTxManager{inner: memory.NewTxManager()},
		func(repo orders.Repository) orders.Repository {
			return &consumedHeadRecorder{Repository: repo, consumedWriteInTx: &inTx}
		})
	ctx := context.Background()

	order := orders.NewOrder(f.cafe.ID, "")
	order.AddItem(f.loaf.ID, qty(2))
	require.NoError(t, f.service.Create(ctx, order))

	consumed, err := f.service.MoveStage(ctx, order.ID, settings.DefaultConsumeStage)
	require.NoError(t, err)
	require.NotNil(t, consumed)
	require.True(t, inTx, "consumed-at head write must share the draw transaction")
}

func TestMoveStage_RetryAfterFailedHeadWriteDrawsOnce(t *testing.T) {
	ctx := context.Background()

	orderRepo := &failingOnceOrderRepo{Repository: memory.NewOrderRepository()}
	products := memory.NewProductRepository()
	planner := &stubPlanner{results: map[id.ID]stock.ConsumeResult{}}
	settingsService := settings.NewService(memory.NewSettingsRepository())
	service := orders.NewService(orderRepo, products, planner, settingsService, memory.NewNumberer(), memory.NewTxManager())

	boxPrice := types.MustMoney("4.50")
	box := product.New("Gift Box")
	box.ManualPrice = &boxPrice
	require.NoError(t, products.Create(ctx, box))

	order := orders.NewOrder(id.New(), "")
	order.AddItem(box.ID, qty(1))
	require.NoError(t, service.Create(ctx, order))

	// The head write fails after the draws: the whole unit fails,
	// nothing sticks.
	_, err := service.MoveStage(ctx, order.ID, settings.DefaultConsumeStage)
	require.Error(t, err)
	require.Equal(t, 0, planner.draws, "a failed head write rolls the draw back")

	stored, err := service.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.False(t, stored.Consumed(), "the order still reads as unconsumed")

	// The natural retry draws stock exactly once.
	consumed, err := service.MoveStage(ctx, order.ID, settings.DefaultConsumeStage)
	require.NoError(t, err)
	require.NotNil(t, consumed)
	require.Equal(t, 1, planner.draws)
}

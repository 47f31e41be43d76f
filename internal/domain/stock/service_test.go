package stock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/core/types"
	"fornada/internal/domain/catalogs/ingredient"
	"fornada/internal/domain/stock"
	"fornada/internal/infrastructure/storage/memory"
)

type stockFixture struct {
	service     *stock.Service
	ingredients *memory.IngredientRepository
	repo        *memory.StockRepository
	flour       *ingredient.Ingredient
}

func newStockFixture(t *testing.T) *stockFixture {
	t.Helper()

	ingredients := memory.NewIngredientRepository()
	repo := memory.NewStockRepository()
	service := stock.NewService(ingredients, repo, memory.NewTxManager())

	flour := ingredient.New("Flour", "g")
	require.NoError(t, ingredients.Create(context.Background(), flour))

	return &stockFixture{
		service:     service,
		ingredients: ingredients,
		repo:        repo,
		flour:       flour,
	}
}

func qty(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

func TestCreateLot(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	cost := types.MustMoney("0.002")
	lot, err := f.service.CreateLot(ctx, f.flour.ID, qty(500), "g", cost, nil, "first delivery")
	require.NoError(t, err)

	require.Equal(t, qty(500), lot.QtyTotal)
	require.Equal(t, qty(500), lot.QtyRemaining)
	require.Equal(t, 1, lot.Version)

	// Creation writes one IN ledger entry valued at qty * unit cost.
	moves, err := f.repo.MovesByLot(ctx, lot.ID)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	require.Equal(t, stock.MoveIn, moves[0].Kind)
	require.Equal(t, qty(500), moves[0].Qty)
	require.True(t, moves[0].Cost.Equal(types.MustMoney("1.0")), "got %s", moves[0].Cost)
}

func TestCreateLot_Validation(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()
	cost := types.MustMoney("0.002")

	_, err := f.service.CreateLot(ctx, f.flour.ID, qty(0), "g", cost, nil, "")
	require.Error(t, err, "zero quantity")

	_, err = f.service.CreateLot(ctx, f.flour.ID, qty(-10), "g", cost, nil, "")
	require.Error(t, err, "negative quantity")

	_, err = f.service.CreateLot(ctx, f.flour.ID, qty(10), "g", types.MustMoney("-1"), nil, "")
	require.Error(t, err, "negative cost")

	_, err = f.service.CreateLot(ctx, f.flour.ID, qty(10), "kg", cost, nil, "")
	require.Error(t, err, "unit mismatch")

	_, err = f.service.CreateLot(ctx, id.New(), qty(10), "g", cost, nil, "")
	require.True(t, apperror.IsNotFound(err), "unknown ingredient")
}

func TestConsume_FIFOOrder(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()
	cost := types.MustMoney("0.002")

	far := time.Now().AddDate(0, 1, 0)
	near := time.Now().AddDate(0, 0, 3)

	// Created first but expiring later: must be drawn second.
	lotFar, err := f.service.CreateLot(ctx, f.flour.ID, qty(300), "g", cost, &far, "")
	require.NoError(t, err)
	lotNear, err := f.service.CreateLot(ctx, f.flour.ID, qty(300), "g", cost, &near, "")
	require.NoError(t, err)
	// Undated lots come last regardless of age.
	lotUndated, err := f.service.CreateLot(ctx, f.flour.ID, qty(700), "g", cost, nil, "")
	require.NoError(t, err)

	result, err := f.service.Consume(ctx, f.flour.ID, qty(900), nil, "")
	require.NoError(t, err)
	require.Equal(t, qty(900), result.Consumed)
	require.True(t, result.Shortfall.IsZero())

	nearAfter, err := f.service.GetLot(ctx, lotNear.ID)
	require.NoError(t, err)
	require.True(t, nearAfter.QtyRemaining.IsZero(), "nearest expiry drains first")

	farAfter, err := f.service.GetLot(ctx, lotFar.ID)
	require.NoError(t, err)
	require.True(t, farAfter.QtyRemaining.IsZero(), "dated lot drains before undated")

	undatedAfter, err := f.service.GetLot(ctx, lotUndated.ID)
	require.NoError(t, err)
	require.Equal(t, qty(400), undatedAfter.QtyRemaining)
}

func TestConsume_Shortfall(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateLot(ctx, f.flour.ID, qty(250), "g", types.MustMoney("0.002"), nil, "")
	require.NoError(t, err)

	result, err := f.service.Consume(ctx, f.flour.ID, qty(400), nil, "")
	require.NoError(t, err, "a shortfall is an answer, not an error")
	require.Equal(t, qty(250), result.Consumed)
	require.Equal(t, qty(150), result.Shortfall)

	remaining, err := f.service.RemainingQuantity(ctx, f.flour.ID)
	require.NoError(t, err)
	require.True(t, remaining.IsZero())
}

func TestConsume_EmptyStock(t *testing.T) {
	f := newStockFixture(t)

	result, err := f.service.Consume(context.Background(), f.flour.ID, qty(100), nil, "")
	require.NoError(t, err)
	require.True(t, result.Consumed.IsZero())
	require.Equal(t, qty(100), result.Shortfall)
}

func TestConsume_TagsOrderOnMoves(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateLot(ctx, f.flour.ID, qty(100), "g", types.MustMoney("0.002"), nil, "")
	require.NoError(t, err)

	orderID := id.New()
	_, err = f.service.Consume(ctx, f.flour.ID, qty(60), &orderID, "order draw")
	require.NoError(t, err)

	outKind := stock.MoveOut
	moves, err := f.service.Ledger(ctx, f.flour.ID, stock.MoveFilter{Kind: &outKind, OrderID: &orderID})
	require.NoError(t, err)
	require.Len(t, moves, 1)
	require.Equal(t, qty(60), moves[0].Qty)
	require.Equal(t, "order draw", moves[0].Note)
}

// Remaining quantity must always equal total purchased minus everything
// the ledger says left the lot.
func TestLedgerConsistency(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	lot, err := f.service.CreateLot(ctx, f.flour.ID, qty(1000), "g", types.MustMoney("0.002"), nil, "")
	require.NoError(t, err)

	_, err = f.service.Consume(ctx, f.flour.ID, qty(350), nil, "")
	require.NoError(t, err)
	_, err = f.service.DiscardFromLot(ctx, lot.ID, qty(120), "spilled")
	require.NoError(t, err)
	_, err = f.service.Consume(ctx, f.flour.ID, qty(80), nil, "")
	require.NoError(t, err)

	current, err := f.service.GetLot(ctx, lot.ID)
	require.NoError(t, err)

	moves, err := f.repo.MovesByLot(ctx, lot.ID)
	require.NoError(t, err)

	var outgoing types.Quantity
	for _, move := range moves {
		if move.Kind == stock.MoveOut || move.Kind == stock.MoveLoss {
			outgoing += move.Qty
		}
	}
	require.Equal(t, current.QtyTotal-outgoing, current.QtyRemaining)
}

func TestDiscardFromLot(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	lot, err := f.service.CreateLot(ctx, f.flour.ID, qty(200), "g", types.MustMoney("0.01"), nil, "")
	require.NoError(t, err)

	// Asking for more than remains discards only what is there.
	discarded, err := f.service.DiscardFromLot(ctx, lot.ID, qty(500), "dropped the bag")
	require.NoError(t, err)
	require.Equal(t, qty(200), discarded)

	after, err := f.service.GetLot(ctx, lot.ID)
	require.NoError(t, err)
	require.True(t, after.QtyRemaining.IsZero())
	require.Equal(t, qty(200), after.QtyTotal, "discard never rewrites the purchased amount")

	losses, err := f.service.Losses(ctx, &f.flour.ID)
	require.NoError(t, err)
	require.Len(t, losses, 1)
	require.Equal(t, "dropped the bag", losses[0].Reason)
	require.Equal(t, qty(200), losses[0].Qty)

	// A second discard on the emptied lot is a no-op.
	discarded, err = f.service.DiscardFromLot(ctx, lot.ID, qty(10), "again")
	require.NoError(t, err)
	require.True(t, discarded.IsZero())

	_, err = f.service.DiscardFromLot(ctx, lot.ID, qty(0), "zero")
	require.Error(t, err)
}

func TestDiscardExpired(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()
	cost := types.MustMoney("0.002")

	expired := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	fresh := time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)

	lotExpired, err := f.service.CreateLot(ctx, f.flour.ID, qty(300), "g", cost, &expired, "")
	require.NoError(t, err)
	lotFresh, err := f.service.CreateLot(ctx, f.flour.ID, qty(400), "g", cost, &fresh, "")
	require.NoError(t, err)
	lotUndated, err := f.service.CreateLot(ctx, f.flour.ID, qty(500), "g", cost, nil, "")
	require.NoError(t, err)

	ref := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	discarded, err := f.service.DiscardExpired(ctx, ref)
	require.NoError(t, err)
	require.Len(t, discarded, 1)
	require.Equal(t, lotExpired.ID, discarded[0].LotID)
	require.Equal(t, qty(300), discarded[0].Qty)

	losses, err := f.service.Losses(ctx, &f.flour.ID)
	require.NoError(t, err)
	require.Len(t, losses, 1)
	require.Equal(t, "expired on 2026-08-10", losses[0].Reason)

	// Untouched lots keep their stock.
	for _, lotID := range []id.ID{lotFresh.ID, lotUndated.ID} {
		lot, err := f.service.GetLot(ctx, lotID)
		require.NoError(t, err)
		require.True(t, lot.QtyRemaining.IsPositive())
	}

	// Second run on the same date finds nothing new.
	discarded, err = f.service.DiscardExpired(ctx, ref)
	require.NoError(t, err)
	require.Empty(t, discarded)
}

func TestDiscardExpired_BoundaryIsExclusive(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	boundary := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	_, err := f.service.CreateLot(ctx, f.flour.ID, qty(100), "g", types.MustMoney("0.002"), &boundary, "")
	require.NoError(t, err)

	// A lot expiring exactly at ref is still good.
	discarded, err := f.service.DiscardExpired(ctx, boundary)
	require.NoError(t, err)
	require.Empty(t, discarded)
}

func TestAdjustLot(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	lot, err := f.service.CreateLot(ctx, f.flour.ID, qty(1000), "g", types.MustMoney("0.002"), nil, "")
	require.NoError(t, err)
	_, err = f.service.Consume(ctx, f.flour.ID, qty(400), nil, "")
	require.NoError(t, err)

	// Correction moves total and remaining together.
	adjusted, err := f.service.AdjustLot(ctx, lot.ID, qty(-100), "scale was off")
	require.NoError(t, err)
	require.Equal(t, qty(900), adjusted.QtyTotal)
	require.Equal(t, qty(500), adjusted.QtyRemaining)

	adjusted, err = f.service.AdjustLot(ctx, lot.ID, qty(50), "recount")
	require.NoError(t, err)
	require.Equal(t, qty(950), adjusted.QtyTotal)
	require.Equal(t, qty(550), adjusted.QtyRemaining)

	adjustKind := stock.MoveAdjust
	moves, err := f.service.Ledger(ctx, f.flour.ID, stock.MoveFilter{Kind: &adjustKind})
	require.NoError(t, err)
	require.Len(t, moves, 2)
	require.Equal(t, qty(-100), moves[0].Qty, "adjust moves keep their sign")
	require.Equal(t, qty(50), moves[1].Qty)
}

func TestAdjustLot_Validation(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	lot, err := f.service.CreateLot(ctx, f.flour.ID, qty(100), "g", types.MustMoney("0.002"), nil, "")
	require.NoError(t, err)

	_, err = f.service.AdjustLot(ctx, lot.ID, qty(0), "noop")
	require.Error(t, err, "zero delta")

	_, err = f.service.AdjustLot(ctx, lot.ID, qty(-150), "too much")
	require.Error(t, err, "would go negative")

	after, err := f.service.GetLot(ctx, lot.ID)
	require.NoError(t, err)
	require.Equal(t, qty(100), after.QtyRemaining)
}

func TestOpenLots_ExcludesEmptied(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	first, err := f.service.CreateLot(ctx, f.flour.ID, qty(100), "g", types.MustMoney("0.002"), nil, "")
	require.NoError(t, err)
	_, err = f.service.CreateLot(ctx, f.flour.ID, qty(200), "g", types.MustMoney("0.002"), nil, "")
	require.NoError(t, err)

	_, err = f.service.Consume(ctx, f.flour.ID, qty(100), nil, "")
	require.NoError(t, err)

	open, err := f.service.OpenLots(ctx, f.flour.ID)
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.NotEqual(t, first.ID, open[0].ID)
}

// racingStockRepository fails UpdateLotQuantities with a version
// conflict a set number of times before delegating.
type racingStockRepository struct {
	*memory.StockRepository
	conflicts int
	updates   int
}

func (r *racingStockRepository) UpdateLotQuantities(ctx context.Context, lotID id.ID, version int, qtyTotal, qtyRemaining types.Quantity) error {
	r.updates++
	if r.conflicts > 0 {
		r.conflicts--
		return apperror.NewConcurrentModification("lot", lotID)
	}
	return r.StockRepository.UpdateLotQuantities(ctx, lotID, version, qtyTotal, qtyRemaining)
}

func newRacingStockFixture(t *testing.T, conflicts int) (*stock.Service, *racingStockRepository, *ingredient.Ingredient) {
	t.Helper()

	ingredients := memory.NewIngredientRepository()
	repo := &racingStockRepository{StockRepository: memory.NewStockRepository(), conflicts: conflicts}
	service := stock.NewService(ingredients, repo, memory.NewTxManager())

	flour := ingredient.New("Flour", "g")
	require.NoError(t, ingredients.Create(context.Background(), flour))
	return service, repo, flour
}

func TestConsume_RetriesOnLotRace(t *testing.T) {
	service, repo, flour := newRacingStockFixture(t, 1)
	ctx := context.Background()

	_, err := service.CreateLot(ctx, flour.ID, qty(1000), "g", types.MustMoney("0.002"), nil, "")
	require.NoError(t, err)

	result, err := service.Consume(ctx, flour.ID, qty(600), nil, "")
	require.NoError(t, err)
	require.Equal(t, qty(600), result.Consumed)
	require.True(t, result.Shortfall.IsZero())

	// One lost race, one clean pass.
	require.Equal(t, 2, repo.updates)

	remaining, err := service.RemainingQuantity(ctx, flour.ID)
	require.NoError(t, err)
	require.Equal(t, qty(400), remaining)

	outKind := stock.MoveOut
	moves, err := service.Ledger(ctx, flour.ID, stock.MoveFilter{Kind: &outKind})
	require.NoError(t, err)
	require.Len(t, moves, 1, "the aborted attempt leaves no ledger entries")
}

func TestConsume_SurfacesConflictAfterBoundedRetries(t *testing.T) {
	service, repo, flour := newRacingStockFixture(t, 100)
	ctx := context.Background()

	_, err := service.CreateLot(ctx, flour.ID, qty(1000), "g", types.MustMoney("0.002"), nil, "")
	require.NoError(t, err)

	_, err = service.Consume(ctx, flour.ID, qty(600), nil, "")
	require.Error(t, err)
	require.True(t, apperror.IsConcurrentModification(err), "got %v", err)
	require.Equal(t, 3, repo.updates, "the whole call retries a bounded number of times")

	remaining, err := service.RemainingQuantity(ctx, flour.ID)
	require.NoError(t, err)
	require.Equal(t, qty(1000), remaining, "nothing is drawn")

	outKind := stock.MoveOut
	moves, err := service.Ledger(ctx, flour.ID, stock.MoveFilter{Kind: &outKind})
	require.NoError(t, err)
	require.Empty(t, moves, "no partial ledger writes survive")
}

// Package stock_repo provides the PostgreSQL implementation of the
// stock repository: lots, the append-only move ledger, and loss events.
package stock_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/core/types"
	"fornada/internal/domain/stock"
	"fornada/internal/infrastructure/storage/postgres"
)

const (
	lotsTable   = "stock_lots"
	movesTable  = "stock_moves"
	lossesTable = "stock_losses"
)

var (
	lotColumns = []string{
		"id", "ingredient_id", "qty_total", "qty_remaining",
		"unit", "unit_cost", "best_before", "note", "version", "created_at",
	}
	moveColumns = []string{
		"id", "lot_id", "ingredient_id", "kind", "qty", "unit",
		"cost", "order_id", "note", "created_at",
	}
)

// StockRepo implements stock.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ stock.Repository = (*StockRepo)(nil)

func (r *StockRepo) CreateLot(ctx context.Context, lot *stock.Lot) error {
	q := r.builder.Insert(lotsTable).
		Columns(lotColumns...).
		Values(
			lot.ID, lot.IngredientID, lot.QtyTotal, lot.QtyRemaining,
			lot.Unit, lot.UnitCost, lot.BestBefore, lot.Note, lot.Version, lot.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

func (r *StockRepo) GetLot(ctx context.Context, lotID id.ID) (*stock.Lot, error) {
	return r.getLot(ctx, lotID, false)
}

func (r *StockRepo) GetLotForUpdate(ctx context.Context, lotID id.ID) (*stock.Lot, error) {
	return r.getLot(ctx, lotID, true)
}

func (r *StockRepo) getLot(ctx context.Context, lotID id.ID, forUpdate bool) (*stock.Lot, error) {
	q := r.builder.Select(lotColumns...).
		From(lotsTable).
		Where(squirrel.Eq{"id": lotID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lot stock.Lot
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &lot, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("lot", lotID.String())
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return &lot, nil
}

func (r *StockRepo) OpenLots(ctx context.Context, ingredientID id.ID) ([]stock.Lot, error) {
	q := r.builder.Select(lotColumns...).
		From(lotsTable).
		Where(squirrel.Eq{"ingredient_id": ingredientID}).
		Where(squirrel.Gt{"qty_remaining": 0}).
		OrderBy("created_at")

	return r.selectLots(ctx, q)
}

// OpenLotsForConsumption returns open lots in FIFO order: expiry-dated
// lots first (earliest expiry), undated lots last, creation time as
// tie-break. Rows are locked when called inside a transaction so two
// consumers cannot drain the same lot.
func (r *StockRepo) OpenLotsForConsumption(ctx context.Context, ingredientID id.ID) ([]stock.Lot, error) {
	q := r.builder.Select(lotColumns...).
		From(lotsTable).
		Where(squirrel.Eq{"ingredient_id": ingredientID}).
		Where(squirrel.Gt{"qty_remaining": 0}).
		OrderBy("(best_before IS NULL)", "best_before", "created_at")
	if r.txManager.GetTx(ctx) != nil {
		q = q.Suffix("FOR UPDATE")
	}

	return r.selectLots(ctx, q)
}

func (r *StockRepo) selectLots(ctx context.Context, q squirrel.SelectBuilder) ([]stock.Lot, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lots []stock.Lot
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lots, sql, args...); err != nil {
		return nil, fmt.Errorf("select lots: %w", err)
	}
	return lots, nil
}

// UpdateLotQuantities writes new totals guarded by the stored version.
// A missed version means another transaction won the race.
func (r *StockRepo) UpdateLotQuantities(ctx context.Context, lotID id.ID, version int, qtyTotal, qtyRemaining types.Quantity) error {
	q := r.builder.Update(lotsTable).
		Set("qty_total", qtyTotal).
		Set("qty_remaining", qtyRemaining).
		Set("version", version+1).
		Where(squirrel.Eq{"id": lotID, "version": version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetLot(ctx, lotID); err != nil {
			return err
		}
		return apperror.NewConcurrentModification("lot", lotID.String())
	}
	return nil
}

func (r *StockRepo) RemainingQuantity(ctx context.Context, ingredientID id.ID) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(SUM(qty_remaining), 0)
		FROM stock_lots
		WHERE ingredient_id = $1
	`

	var totalScaled int64
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, ingredientID).Scan(&totalScaled); err != nil {
		return 0, fmt.Errorf("sum remaining: %w", err)
	}
	return types.NewQuantityFromInt64Scaled(totalScaled), nil
}

func (r *StockRepo) ExpiredLots(ctx context.Context, ref time.Time) ([]stock.Lot, error) {
	q := r.builder.Select(lotColumns...).
		From(lotsTable).
		Where(squirrel.Gt{"qty_remaining": 0}).
		Where(squirrel.Lt{"best_before": ref}).
		OrderBy("best_before", "created_at")
	if r.txManager.GetTx(ctx) != nil {
		q = q.Suffix("FOR UPDATE")
	}

	return r.selectLots(ctx, q)
}

func (r *StockRepo) CreateMove(ctx context.Context, move *stock.Move) error {
	q := r.builder.Insert(movesTable).
		Columns(moveColumns...).
		Values(
			move.ID, move.LotID, move.IngredientID, move.Kind, move.Qty, move.Unit,
			move.Cost, move.OrderID, move.Note, move.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert move: %w", err)
	}
	return nil
}

// CreateMoves batch inserts ledger entries. Uses COPY when inside a
// transaction.
func (r *StockRepo) CreateMoves(ctx context.Context, moves []stock.Move) error {
	if len(moves) == 0 {
		return nil
	}

	if r.txManager.GetTx(ctx) != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(moves))
		for _, m := range moves {
			rows = append(rows, []any{
				m.ID, m.LotID, m.IngredientID, m.Kind, m.Qty, m.Unit,
				m.Cost, m.OrderID, m.Note, m.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, movesTable, moveColumns, rows); err != nil {
			return fmt.Errorf("copy moves: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(movesTable).Columns(moveColumns...)
	for _, m := range moves {
		q = q.Values(
			m.ID, m.LotID, m.IngredientID, m.Kind, m.Qty, m.Unit,
			m.Cost, m.OrderID, m.Note, m.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert moves: %w", err)
	}
	return nil
}

func (r *StockRepo) MovesByLot(ctx context.Context, lotID id.ID) ([]stock.Move, error) {
	q := r.builder.Select(moveColumns...).
		From(movesTable).
		Where(squirrel.Eq{"lot_id": lotID}).
		OrderBy("created_at")

	return r.selectMoves(ctx, q)
}

func (r *StockRepo) MovesByIngredient(ctx context.Context, ingredientID id.ID, filter stock.MoveFilter) ([]stock.Move, error) {
	q := r.builder.Select(moveColumns...).
		From(movesTable).
		Where(squirrel.Eq{"ingredient_id": ingredientID})

	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	if filter.OrderID != nil {
		q = q.Where(squirrel.Eq{"order_id": *filter.OrderID})
	}

	q = q.OrderBy("created_at")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	return r.selectMoves(ctx, q)
}

func (r *StockRepo) selectMoves(ctx context.Context, q squirrel.SelectBuilder) ([]stock.Move, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var moves []stock.Move
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &moves, sql, args...); err != nil {
		return nil, fmt.Errorf("select moves: %w", err)
	}
	return moves, nil
}

func (r *StockRepo) CreateLossEvent(ctx context.Context, event *stock.LossEvent) error {
	q := r.builder.Insert(lossesTable).
		Columns("id", "ingredient_id", "lot_id", "qty", "reason", "created_at").
		Values(event.ID, event.IngredientID, event.LotID, event.Qty, event.Reason, event.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert loss event: %w", err)
	}
	return nil
}

func (r *StockRepo) LossEvents(ctx context.Context, ingredientID *id.ID) ([]stock.LossEvent, error) {
	q := r.builder.Select("id", "ingredient_id", "lot_id", "qty", "reason", "created_at").
		From(lossesTable)
	if ingredientID != nil {
		q = q.Where(squirrel.Eq{"ingredient_id": *ingredientID})
	}
	q = q.OrderBy("created_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var events []stock.LossEvent
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &events, sql, args...); err != nil {
		return nil, fmt.Errorf("select loss events: %w", err)
	}
	return events, nil
}

package stock

import (
	"context"
	"fmt"
	"time"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/core/tx"
	"fornada/internal/core/types"
	"fornada/internal/domain/catalogs/ingredient"
	"fornada/pkg/logger"
)

// defaultMaxRetries bounds the whole-call retry on lot version conflicts.
const defaultMaxRetries = 3

// IngredientDirectory is the subset of the ingredient catalog the stock
// service needs: existence and unit checks.
type IngredientDirectory interface {
	GetByID(ctx context.Context, ingredientID id.ID) (*ingredient.Ingredient, error)
}

// Service provides lot storage, FIFO consumption and discard operations.
type Service struct {
	ingredients IngredientDirectory
	repo        Repository
	txManager   tx.Manager
	maxRetries  int
}

// NewService creates a new stock service.
func NewService(ingredients IngredientDirectory, repo Repository, txManager tx.Manager) *Service {
	return &Service{
		ingredients: ingredients,
		repo:        repo,
		txManager:   txManager,
		maxRetries:  defaultMaxRetries,
	}
}

// CreateLot records a purchase: a new lot plus one IN ledger entry with
// cost = qty * unitCost.
func (s *Service) CreateLot(ctx context.Context, ingredientID id.ID, qty types.Quantity, unit string, unitCost types.Money, bestBefore *time.Time, note string) (*Lot, error) {
	if !qty.IsPositive() {
		return nil, apperror.NewValidation("lot quantity must be positive").
			WithDetail("field", "qty").
			WithDetail("value", qty)
	}
	if unitCost.IsNegative() {
		return nil, apperror.NewValidation("unit cost cannot be negative").
			WithDetail("field", "unitCost")
	}

	ing, err := s.ingredients.GetByID(ctx, ingredientID)
	if err != nil {
		return nil, err
	}
	if unit != ing.Unit {
		return nil, apperror.NewValidation("lot unit does not match ingredient unit").
			WithDetail("lot_unit", unit).
			WithDetail("ingredient_unit", ing.Unit)
	}

	lot := &Lot{
		ID:           id.New(),
		IngredientID: ingredientID,
		QtyTotal:     qty,
		QtyRemaining: qty,
		Unit:         unit,
		UnitCost:     unitCost,
		BestBefore:   bestBefore,
		Note:         note,
		Version:      1,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateLot(ctx, lot); err != nil {
			return fmt.Errorf("create lot: %w", err)
		}
		move := &Move{
			ID:           id.New(),
			LotID:        &lot.ID,
			IngredientID: ingredientID,
			Kind:         MoveIn,
			Qty:          qty,
			Unit:         unit,
			Cost:         unitCost.Mul(qty.Decimal()),
			Note:         "purchase",
			CreatedAt:    lot.CreatedAt,
		}
		if err := s.repo.CreateMove(ctx, move); err != nil {
			return fmt.Errorf("record purchase move: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "lot created",
		"lot_id", lot.ID,
		"ingredient_id", ingredientID,
		"qty", qty,
		"unit_cost", unitCost,
	)
	return lot, nil
}

// GetLot returns one lot.
func (s *Service) GetLot(ctx context.Context, lotID id.ID) (*Lot, error) {
	return s.repo.GetLot(ctx, lotID)
}

// OpenLots returns lots with remaining stock for an ingredient.
func (s *Service) OpenLots(ctx context.Context, ingredientID id.ID) ([]Lot, error) {
	return s.repo.OpenLots(ctx, ingredientID)
}

// RemainingQuantity returns the total remaining stock of an ingredient.
func (s *Service) RemainingQuantity(ctx context.Context, ingredientID id.ID) (types.Quantity, error) {
	return s.repo.RemainingQuantity(ctx, ingredientID)
}

// Consume draws stock FIFO: earliest expiry first, undated lots last,
// oldest creation as tie-break. Emits one OUT move per lot drawn from.
// A shortfall is a normal result, never an error. The whole call runs in
// one transaction and is retried as a whole on lot version conflicts.
func (s *Service) Consume(ctx context.Context, ingredientID id.ID, needed types.Quantity, orderID *id.ID, note string) (ConsumeResult, error) {
	var result ConsumeResult
	err := s.withConflictRetry(ctx, "consume", func(ctx context.Context) error {
		var err error
		result, err = s.ConsumeInTx(ctx, ingredientID, needed, orderID, note)
		return err
	})
	return result, err
}

// ConsumeInTx is Consume without transaction management; it must be called
// within a transaction. The requirement engine uses it to draw several
// ingredients atomically for one order.
func (s *Service) ConsumeInTx(ctx context.Context, ingredientID id.ID, needed types.Quantity, orderID *id.ID, note string) (ConsumeResult, error) {
	remaining := needed
	if remaining.IsNegative() {
		remaining = 0
	}
	if note == "" {
		note = "fifo consumption"
	}

	lots, err := s.repo.OpenLotsForConsumption(ctx, ingredientID)
	if err != nil {
		return ConsumeResult{}, fmt.Errorf("select lots: %w", err)
	}

	moves := make([]Move, 0, len(lots))
	now := time.Now().UTC()
	for i := range lots {
		if !remaining.IsPositive() {
			break
		}
		lot := &lots[i]
		taken := remaining.Min(lot.QtyRemaining)
		if !taken.IsPositive() {
			continue
		}

		err := s.repo.UpdateLotQuantities(ctx, lot.ID, lot.Version, lot.QtyTotal, lot.QtyRemaining-taken)
		if err != nil {
			return ConsumeResult{}, err
		}

		moves = append(moves, Move{
			ID:           id.New(),
			LotID:        &lot.ID,
			IngredientID: ingredientID,
			Kind:         MoveOut,
			Qty:          taken,
			Unit:         lot.Unit,
			Cost:         lot.UnitCost.Mul(taken.Decimal()),
			OrderID:      orderID,
			Note:         note,
			CreatedAt:    now,
		})
		remaining -= taken
	}

	if err := s.repo.CreateMoves(ctx, moves); err != nil {
		return ConsumeResult{}, fmt.Errorf("record consumption moves: %w", err)
	}

	result := ConsumeResult{
		Consumed:  needed - remaining,
		Shortfall: remaining,
	}
	if result.Consumed.IsNegative() {
		result.Consumed = 0
	}

	logger.Debug(ctx, "fifo consumption",
		"ingredient_id", ingredientID,
		"needed", needed,
		"consumed", result.Consumed,
		"shortfall", result.Shortfall,
	)
	return result, nil
}

// DiscardFromLot draws at most min(qty, remaining) from exactly one lot,
// emitting one LOSS move and one loss event. Returns the quantity
// actually discarded.
func (s *Service) DiscardFromLot(ctx context.Context, lotID id.ID, qty types.Quantity, reason string) (types.Quantity, error) {
	if !qty.IsPositive() {
		return 0, apperror.NewValidation("discard quantity must be positive").
			WithDetail("field", "qty")
	}

	var discarded types.Quantity
	err := s.withConflictRetry(ctx, "discard", func(ctx context.Context) error {
		var err error
		discarded, err = s.discardInTx(ctx, lotID, qty, reason)
		return err
	})
	if err != nil {
		return 0, err
	}

	logger.Info(ctx, "lot discard",
		"lot_id", lotID,
		"qty", discarded,
		"reason", reason,
	)
	return discarded, nil
}

func (s *Service) discardInTx(ctx context.Context, lotID id.ID, qty types.Quantity, reason string) (types.Quantity, error) {
	lot, err := s.repo.GetLotForUpdate(ctx, lotID)
	if err != nil {
		return 0, err
	}

	taken := qty.Min(lot.QtyRemaining)
	if !taken.IsPositive() {
		return 0, nil
	}

	if err := s.repo.UpdateLotQuantities(ctx, lot.ID, lot.Version, lot.QtyTotal, lot.QtyRemaining-taken); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	move := &Move{
		ID:           id.New(),
		LotID:        &lot.ID,
		IngredientID: lot.IngredientID,
		Kind:         MoveLoss,
		Qty:          taken,
		Unit:         lot.Unit,
		Cost:         lot.UnitCost.Mul(taken.Decimal()),
		Note:         reason,
		CreatedAt:    now,
	}
	if err := s.repo.CreateMove(ctx, move); err != nil {
		return 0, fmt.Errorf("record loss move: %w", err)
	}

	event := &LossEvent{
		ID:           id.New(),
		IngredientID: lot.IngredientID,
		LotID:        &lot.ID,
		Qty:          taken,
		Reason:       reason,
		CreatedAt:    now,
	}
	if err := s.repo.CreateLossEvent(ctx, event); err != nil {
		return 0, fmt.Errorf("record loss event: %w", err)
	}

	return taken, nil
}

// DiscardExpired discards the entire remaining quantity of every lot whose
// expiry lies strictly before ref. Idempotent: emptied lots are not
// selected again, so a second call on the same date discards nothing new.
func (s *Service) DiscardExpired(ctx context.Context, ref time.Time) ([]DiscardedLot, error) {
	var out []DiscardedLot
	err := s.withConflictRetry(ctx, "discard expired", func(ctx context.Context) error {
		out = out[:0]
		lots, err := s.repo.ExpiredLots(ctx, ref)
		if err != nil {
			return fmt.Errorf("select expired lots: %w", err)
		}
		for i := range lots {
			lot := &lots[i]
			reason := fmt.Sprintf("expired on %s", lot.BestBefore.Format("2006-01-02"))
			taken, err := s.discardInTx(ctx, lot.ID, lot.QtyRemaining, reason)
			if err != nil {
				return err
			}
			if taken.IsPositive() {
				out = append(out, DiscardedLot{LotID: lot.ID, Qty: taken})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(out) > 0 {
		logger.Info(ctx, "expired lots discarded", "count", len(out), "ref_date", ref.Format("2006-01-02"))
	}
	return out, nil
}

// AdjustLot corrects a lot's purchased amount by delta (positive or
// negative), moving QtyTotal and QtyRemaining together so the ledger
// consistency invariant is preserved. Emits one signed ADJUST move.
func (s *Service) AdjustLot(ctx context.Context, lotID id.ID, delta types.Quantity, reason string) (*Lot, error) {
	if delta.IsZero() {
		return nil, apperror.NewValidation("adjustment delta cannot be zero").
			WithDetail("field", "delta")
	}

	var adjusted *Lot
	err := s.withConflictRetry(ctx, "adjust", func(ctx context.Context) error {
		lot, err := s.repo.GetLotForUpdate(ctx, lotID)
		if err != nil {
			return err
		}

		newTotal := lot.QtyTotal + delta
		newRemaining := lot.QtyRemaining + delta
		if newRemaining.IsNegative() || newTotal.IsNegative() {
			return apperror.NewValidation("adjustment would make lot quantity negative").
				WithDetail("lot_id", lotID).
				WithDetail("delta", delta)
		}

		if err := s.repo.UpdateLotQuantities(ctx, lot.ID, lot.Version, newTotal, newRemaining); err != nil {
			return err
		}

		move := &Move{
			ID:           id.New(),
			LotID:        &lot.ID,
			IngredientID: lot.IngredientID,
			Kind:         MoveAdjust,
			Qty:          delta,
			Unit:         lot.Unit,
			Cost:         lot.UnitCost.Mul(delta.Decimal()),
			Note:         reason,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.repo.CreateMove(ctx, move); err != nil {
			return fmt.Errorf("record adjust move: %w", err)
		}

		lot.QtyTotal = newTotal
		lot.QtyRemaining = newRemaining
		lot.Version++
		adjusted = lot
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "lot adjusted", "lot_id", lotID, "delta", delta, "reason", reason)
	return adjusted, nil
}

// Ledger returns the move history of an ingredient.
func (s *Service) Ledger(ctx context.Context, ingredientID id.ID, filter MoveFilter) ([]Move, error) {
	return s.repo.MovesByIngredient(ctx, ingredientID, filter)
}

// Losses returns recorded loss events, optionally for one ingredient.
func (s *Service) Losses(ctx context.Context, ingredientID *id.ID) ([]LossEvent, error) {
	return s.repo.LossEvents(ctx, ingredientID)
}

// withConflictRetry runs fn in a transaction, retrying the whole unit a
// bounded number of times when a lot version conflict rolled it back.
func (s *Service) withConflictRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err = s.txManager.RunInTransaction(ctx, fn)
		if err == nil || !apperror.IsConcurrentModification(err) {
			return err
		}
		logger.Warn(ctx, "stock operation lost a lot race, retrying",
			"op", op,
			"attempt", attempt,
		)
	}
	return err
}

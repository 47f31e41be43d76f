package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/core/types"
	"fornada/internal/domain/stock"
)

// StockRepository provides in-memory lot, ledger and loss storage.
type StockRepository struct {
	mu     sync.RWMutex
	lots   map[id.ID]*stock.Lot
	moves  []stock.Move
	losses []stock.LossEvent
}

// NewStockRepository creates a new in-memory stock repository.
func NewStockRepository() *StockRepository {
	return &StockRepository{
		lots: make(map[id.ID]*stock.Lot),
	}
}

var _ stock.Repository = (*StockRepository)(nil)

func (r *StockRepository) CreateLot(_ context.Context, lot *stock.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *lot
	r.lots[lot.ID] = &clone
	return nil
}

func (r *StockRepository) GetLot(_ context.Context, lotID id.ID) (*stock.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lot, ok := r.lots[lotID]
	if !ok {
		return nil, apperror.NewNotFound("lot", lotID.String())
	}
	clone := *lot
	return &clone, nil
}

func (r *StockRepository) GetLotForUpdate(ctx context.Context, lotID id.ID) (*stock.Lot, error) {
	return r.GetLot(ctx, lotID)
}

func (r *StockRepository) OpenLots(_ context.Context, ingredientID id.ID) ([]stock.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.openLotsLocked(ingredientID), nil
}

func (r *StockRepository) OpenLotsForConsumption(_ context.Context, ingredientID id.ID) ([]stock.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lots := r.openLotsLocked(ingredientID)
	sort.SliceStable(lots, func(i, j int) bool {
		a, b := lots[i], lots[j]
		switch {
		case a.BestBefore == nil && b.BestBefore != nil:
			return false
		case a.BestBefore != nil && b.BestBefore == nil:
			return true
		case a.BestBefore != nil && b.BestBefore != nil && !a.BestBefore.Equal(*b.BestBefore):
			return a.BestBefore.Before(*b.BestBefore)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return lots, nil
}

func (r *StockRepository) openLotsLocked(ingredientID id.ID) []stock.Lot {
	lots := make([]stock.Lot, 0)
	for _, lot := range r.lots {
		if lot.IngredientID == ingredientID && lot.Open() {
			lots = append(lots, *lot)
		}
	}
	return lots
}

func (r *StockRepository) UpdateLotQuantities(_ context.Context, lotID id.ID, version int, qtyTotal, qtyRemaining types.Quantity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot, ok := r.lots[lotID]
	if !ok {
		return apperror.NewNotFound("lot", lotID.String())
	}
	if lot.Version != version {
		return apperror.NewConcurrentModification("lot", lotID.String())
	}
	lot.QtyTotal = qtyTotal
	lot.QtyRemaining = qtyRemaining
	lot.Version++
	return nil
}

func (r *StockRepository) RemainingQuantity(_ context.Context, ingredientID id.ID) (types.Quantity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total types.Quantity
	for _, lot := range r.lots {
		if lot.IngredientID == ingredientID {
			total += lot.QtyRemaining
		}
	}
	return total, nil
}

func (r *StockRepository) ExpiredLots(_ context.Context, ref time.Time) ([]stock.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lots := make([]stock.Lot, 0)
	for _, lot := range r.lots {
		if lot.Open() && lot.ExpiredAt(ref) {
			lots = append(lots, *lot)
		}
	}
	sort.Slice(lots, func(i, j int) bool {
		return lots[i].CreatedAt.Before(lots[j].CreatedAt)
	})
	return lots, nil
}

func (r *StockRepository) CreateMove(_ context.Context, move *stock.Move) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moves = append(r.moves, *move)
	return nil
}

func (r *StockRepository) CreateMoves(_ context.Context, moves []stock.Move) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moves = append(r.moves, moves...)
	return nil
}

func (r *StockRepository) MovesByLot(_ context.Context, lotID id.ID) ([]stock.Move, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	moves := make([]stock.Move, 0)
	for _, move := range r.moves {
		if move.LotID != nil && *move.LotID == lotID {
			moves = append(moves, move)
		}
	}
	return moves, nil
}

func (r *StockRepository) MovesByIngredient(_ context.Context, ingredientID id.ID, filter stock.MoveFilter) ([]stock.Move, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	moves := make([]stock.Move, 0)
	for _, move := range r.moves {
		if move.IngredientID != ingredientID {
			continue
		}
		if filter.Kind != nil && move.Kind != *filter.Kind {
			continue
		}
		if filter.OrderID != nil && (move.OrderID == nil || *move.OrderID != *filter.OrderID) {
			continue
		}
		moves = append(moves, move)
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(moves) {
			return []stock.Move{}, nil
		}
		moves = moves[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(moves) {
		moves = moves[:filter.Limit]
	}
	return moves, nil
}

func (r *StockRepository) CreateLossEvent(_ context.Context, event *stock.LossEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.losses = append(r.losses, *event)
	return nil
}

func (r *StockRepository) LossEvents(_ context.Context, ingredientID *id.ID) ([]stock.LossEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	events := make([]stock.LossEvent, 0)
	for _, event := range r.losses {
		if ingredientID != nil && event.IngredientID != *ingredientID {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

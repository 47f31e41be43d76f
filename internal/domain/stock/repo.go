package stock

import (
	"context"
	"time"

	"fornada/internal/core/id"
	"fornada/internal/core/types"
)

// MoveFilter narrows ledger queries.
type MoveFilter struct {
	Kind    *MoveKind
	OrderID *id.ID
	Limit   int
	Offset  int
}

// Repository defines storage operations for lots, ledger entries and
// loss events.
type Repository interface {
	// Lot operations

	CreateLot(ctx context.Context, lot *Lot) error

	// GetLot returns one lot or a not-found error.
	GetLot(ctx context.Context, lotID id.ID) (*Lot, error)

	// GetLotForUpdate returns one lot with a row lock for mutation.
	GetLotForUpdate(ctx context.Context, lotID id.ID) (*Lot, error)

	// OpenLots returns lots with remaining stock, without locking.
	// Used by read-only paths (costing, availability).
	OpenLots(ctx context.Context, ingredientID id.ID) ([]Lot, error)

	// OpenLotsForConsumption returns lots with remaining stock in FIFO
	// order: expiry-dated lots first (earliest expiry), lots without an
	// expiry last, creation time ascending as tie-break. Rows are locked
	// when called within a transaction.
	OpenLotsForConsumption(ctx context.Context, ingredientID id.ID) ([]Lot, error)

	// UpdateLotQuantities writes new totals if the stored version still
	// matches; returns a concurrent-modification error otherwise.
	UpdateLotQuantities(ctx context.Context, lotID id.ID, version int, qtyTotal, qtyRemaining types.Quantity) error

	// RemainingQuantity sums QtyRemaining over all open lots.
	RemainingQuantity(ctx context.Context, ingredientID id.ID) (types.Quantity, error)

	// ExpiredLots returns open lots whose expiry lies strictly before ref.
	ExpiredLots(ctx context.Context, ref time.Time) ([]Lot, error)

	// Ledger operations (append-only)

	CreateMove(ctx context.Context, move *Move) error
	CreateMoves(ctx context.Context, moves []Move) error
	MovesByLot(ctx context.Context, lotID id.ID) ([]Move, error)
	MovesByIngredient(ctx context.Context, ingredientID id.ID, filter MoveFilter) ([]Move, error)

	// Loss reporting

	CreateLossEvent(ctx context.Context, event *LossEvent) error
	LossEvents(ctx context.Context, ingredientID *id.ID) ([]LossEvent, error)
}

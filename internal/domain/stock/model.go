// Package stock provides the inventory core: purchased lots, the
// append-only stock ledger, and FIFO consumption.
//
// The ledger is the source of truth for all quantity and cost history.
// Lot.QtyRemaining is a cached aggregate that must always equal
// QtyTotal minus the sum of OUT and LOSS moves against the lot.
package stock

import (
	"time"

	"fornada/internal/core/id"
	"fornada/internal/core/types"
)

// MoveKind classifies a ledger entry.
type MoveKind string

const (
	// MoveIn records a purchase (lot creation)
	MoveIn MoveKind = "IN"
	// MoveOut records consumption
	MoveOut MoveKind = "OUT"
	// MoveAdjust records a manual correction of a lot's purchased amount
	MoveAdjust MoveKind = "ADJUST"
	// MoveLoss records a discard (manual or expiry)
	MoveLoss MoveKind = "LOSS"
)

// Lot is a discrete purchased batch of one ingredient.
// Lots are never deleted once consumption has started; they age out when
// QtyRemaining reaches zero.
type Lot struct {
	ID           id.ID `db:"id" json:"id"`
	IngredientID id.ID `db:"ingredient_id" json:"ingredientId"`

	// QtyTotal is the purchased quantity
	QtyTotal types.Quantity `db:"qty_total" json:"qtyTotal"`

	// QtyRemaining is monotonically non-increasing under consumption.
	// Invariant: 0 <= QtyRemaining <= QtyTotal.
	QtyRemaining types.Quantity `db:"qty_remaining" json:"qtyRemaining"`

	// Unit must match the ingredient's declared unit
	Unit string `db:"unit" json:"unit"`

	// UnitCost is the purchase price per unit
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	// BestBefore is the optional expiry date
	BestBefore *time.Time `db:"best_before" json:"bestBefore,omitempty"`

	Note string `db:"note" json:"note,omitempty"`

	// Version guards concurrent decrements (optimistic locking)
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Open reports whether the lot still has stock.
func (l *Lot) Open() bool {
	return l.QtyRemaining.IsPositive()
}

// ExpiredAt reports whether the lot's expiry date lies strictly before ref.
// Lots without an expiry never expire.
func (l *Lot) ExpiredAt(ref time.Time) bool {
	return l.BestBefore != nil && l.BestBefore.Before(ref)
}

// Move is one immutable entry of the stock ledger.
type Move struct {
	ID id.ID `db:"id" json:"id"`

	// LotID is set for all kinds except legacy adjustments without a lot
	LotID *id.ID `db:"lot_id" json:"lotId,omitempty"`

	IngredientID id.ID    `db:"ingredient_id" json:"ingredientId"`
	Kind         MoveKind `db:"kind" json:"kind"`

	// Qty is positive for IN/OUT/LOSS; signed for ADJUST
	Qty  types.Quantity `db:"qty" json:"qty"`
	Unit string         `db:"unit" json:"unit"`

	// Cost is quantity times the lot's unit cost at the time of the move
	Cost types.Money `db:"cost" json:"cost"`

	// OrderID references the order that triggered an OUT move (optional)
	OrderID *id.ID `db:"order_id" json:"orderId,omitempty"`

	Note      string    `db:"note" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// LossEvent is a denormalized record of a LOSS move, kept for reporting.
type LossEvent struct {
	ID           id.ID          `db:"id" json:"id"`
	IngredientID id.ID          `db:"ingredient_id" json:"ingredientId"`
	LotID        *id.ID         `db:"lot_id" json:"lotId,omitempty"`
	Qty          types.Quantity `db:"qty" json:"qty"`
	Reason       string         `db:"reason" json:"reason"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
}

// ConsumeResult reports the outcome of a consumption request.
// Shortfall greater than zero is a normal outcome, not an error.
type ConsumeResult struct {
	Consumed  types.Quantity `json:"consumed"`
	Shortfall types.Quantity `json:"shortfall"`
}

// DiscardedLot reports one lot emptied by DiscardExpired.
type DiscardedLot struct {
	LotID id.ID          `json:"lotId"`
	Qty   types.Quantity `json:"qty"`
}

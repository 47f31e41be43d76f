package dto

import (
	"time"

	"fornada/internal/core/types"
)

// CreateLotRequest registers a purchase as a new lot.
type CreateLotRequest struct {
	IngredientID string         `json:"ingredientId" binding:"required"`
	Qty          types.Quantity `json:"qty" binding:"required"`
	Unit         string         `json:"unit" binding:"required"`
	UnitCost     types.Money    `json:"unitCost" binding:"required"`
	BestBefore   *time.Time     `json:"bestBefore"`
	Note         string         `json:"note"`
}

// ConsumeRequest draws stock FIFO for one ingredient.
type ConsumeRequest struct {
	IngredientID string         `json:"ingredientId" binding:"required"`
	Qty          types.Quantity `json:"qty" binding:"required"`
	OrderID      *string        `json:"orderId"`
	Note         string         `json:"note"`
}

// DiscardRequest writes off a quantity from one lot.
type DiscardRequest struct {
	Qty    types.Quantity `json:"qty" binding:"required"`
	Reason string         `json:"reason" binding:"required"`
}

// AdjustRequest corrects a lot's purchased amount by a signed delta.
type AdjustRequest struct {
	Delta  types.Quantity `json:"delta" binding:"required"`
	Reason string         `json:"reason" binding:"required"`
}

// DiscardExpiredRequest empties every lot expired as of the given time.
// AsOf defaults to now.
type DiscardExpiredRequest struct {
	AsOf *time.Time `json:"asOf"`
}

package dto

import (
	"time"

	"fornada/internal/core/types"
)

// OrderItemRequest is one product line of an order.
type OrderItemRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Qty       types.Quantity `json:"qty" binding:"required"`
}

// CreateOrderRequest creates a new order. Prices are resolved server-side.
type CreateOrderRequest struct {
	ClientID     string             `json:"clientId" binding:"required"`
	DeliveryDate *time.Time         `json:"deliveryDate"`
	Notes        string             `json:"notes"`
	Stage        string             `json:"stage"`
	Items        []OrderItemRequest `json:"items" binding:"required,min=1"`
}

// UpdateOrderRequest updates an order head. Orders that already consumed
// stock are frozen.
type UpdateOrderRequest struct {
	ClientID     *string    `json:"clientId"`
	DeliveryDate *time.Time `json:"deliveryDate"`
	Notes        *string    `json:"notes"`
	Version      int        `json:"version" binding:"required,min=1"`
}

// MoveStageRequest moves an order along the stage pipeline.
type MoveStageRequest struct {
	Stage string `json:"stage" binding:"required"`
}

// MarkPaidRequest toggles the paid flag.
type MarkPaidRequest struct {
	Paid bool `json:"paid"`
}

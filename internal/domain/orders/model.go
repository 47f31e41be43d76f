// Package orders provides the customer order document: priced product
// lines, a stage pipeline, and the stage-triggered stock consumption.
package orders

import (
	"context"
	"time"

	"fornada/internal/core/apperror"
	"fornada/internal/core/entity"
	"fornada/internal/core/id"
	"fornada/internal/core/types"
)

// Order is a customer order with product lines.
type Order struct {
	entity.BaseEntity

	// Number is assigned on creation (e.g. ORD-2026-00001)
	Number string `db:"number" json:"number"`

	ClientID id.ID `db:"client_id" json:"clientId"`

	// Status is one of the configured stages
	Status string `db:"status" json:"status"`

	Paid bool `db:"paid" json:"paid"`

	DeliveryDate *time.Time `db:"delivery_date" json:"deliveryDate,omitempty"`

	// Total is the sum of line amounts
	Total types.Money `db:"total" json:"total"`

	Notes string `db:"notes" json:"notes,omitempty"`

	// ConsumedAt is set when stock has been drawn for this order.
	// Guards against double consumption on repeated stage moves.
	ConsumedAt *time.Time `db:"consumed_at" json:"consumedAt,omitempty"`

	// Table part
	Items []Item `db:"-" json:"items"`
}

// Item is one product position of an order.
type Item struct {
	ID        id.ID `db:"id" json:"id"`
	OrderID   id.ID `db:"order_id" json:"orderId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	Qty types.Quantity `db:"qty" json:"qty"`

	// UnitPrice is the sale price per unit, resolved at order creation
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// UnitCostSnapshot freezes the estimated unit cost at creation so
	// later price changes don't rewrite order economics
	UnitCostSnapshot types.Money `db:"unit_cost_snapshot" json:"unitCostSnapshot"`
}

// NewOrder creates a new order in the initial stage.
func NewOrder(clientID id.ID, initialStage string) *Order {
	return &Order{
		BaseEntity: entity.NewBaseEntity(),
		ClientID:   clientID,
		Status:     initialStage,
		Total:      types.ZeroMoney(),
		Items:      make([]Item, 0),
	}
}

// AddItem appends a product line. Prices are resolved by the service.
func (o *Order) AddItem(productID id.ID, qty types.Quantity) {
	o.Items = append(o.Items, Item{
		ID:        id.New(),
		OrderID:   o.ID,
		ProductID: productID,
		Qty:       qty,
	})
}

// RecalculateTotal recomputes Total from line prices.
func (o *Order) RecalculateTotal() {
	total := types.ZeroMoney()
	for _, item := range o.Items {
		total = total.Add(item.UnitPrice.Mul(item.Qty.Decimal()))
	}
	o.Total = total
}

// Consumed reports whether stock has already been drawn for this order.
func (o *Order) Consumed() bool {
	return o.ConsumedAt != nil
}

// Validate implements entity.Validatable.
func (o *Order) Validate(_ context.Context) error {
	if id.IsNil(o.ClientID) {
		return apperror.NewValidation("client is required").
			WithDetail("field", "clientId")
	}
	if len(o.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}
	for i, item := range o.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if !item.Qty.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}

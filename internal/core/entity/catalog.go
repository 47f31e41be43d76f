package entity

import (
	"context"

	"fornada/internal/core/apperror"
)

// Catalog is the base type for reference data: ingredients, recipes,
// products, clients. Catalog rows are edited freely through CRUD and are
// deactivated rather than deleted once referenced by stock history.
type Catalog struct {
	BaseEntity

	// Name is the display name (unique per catalog)
	Name string `db:"name" json:"name"`

	// IsActive indicates whether the entry can be used in new operations
	IsActive bool `db:"is_active" json:"isActive"`
}

// NewCatalog creates a new active Catalog with generated ID.
func NewCatalog(name string) Catalog {
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Name:       name,
		IsActive:   true,
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}

// Deactivate marks the entry as unusable for new operations.
func (c *Catalog) Deactivate() {
	c.IsActive = false
}

// Activate re-enables the entry.
func (c *Catalog) Activate() {
	c.IsActive = true
}

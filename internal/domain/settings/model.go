// Package settings holds the single application configuration record:
// default margin for cost-based pricing and the order stage pipeline.
package settings

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"fornada/internal/core/apperror"
	"fornada/internal/core/types"
)

// Default stage pipeline. Consumption fires when an order enters
// DefaultConsumeStage.
var (
	DefaultStages       = []string{"new", "in_production", "ready", "delivered"}
	DefaultConsumeStage = "in_production"
)

// DefaultMargin is applied on top of estimated cost when a product has
// no manual price: price = cost * (1 + margin).
var DefaultMargin = decimal.NewFromFloat(0.5)

// Config is the application configuration. Exactly one record exists.
type Config struct {
	// MarginDefault is a fraction, e.g. 0.5 for a 50% markup
	MarginDefault types.Money `db:"margin_default" json:"marginDefault"`

	// Stages is the ordered order-status pipeline
	Stages []string `db:"stages" json:"stages"`

	// ConsumeStage names the stage whose entry triggers stock consumption
	ConsumeStage string `db:"consume_stage" json:"consumeStage"`

	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// DefaultConfig returns the configuration used before any save.
func DefaultConfig() *Config {
	return &Config{
		MarginDefault: DefaultMargin,
		Stages:        slices.Clone(DefaultStages),
		ConsumeStage:  DefaultConsumeStage,
	}
}

// Validate implements entity.Validatable.
func (c *Config) Validate(_ context.Context) error {
	if c.MarginDefault.IsNegative() {
		return apperror.NewValidation("margin must not be negative").
			WithDetail("field", "marginDefault")
	}
	if len(c.Stages) == 0 {
		return apperror.NewValidation("at least one stage is required").
			WithDetail("field", "stages")
	}
	if !slices.Contains(c.Stages, c.ConsumeStage) {
		return apperror.NewValidation("consume stage must be one of the configured stages").
			WithDetail("field", "consumeStage")
	}
	return nil
}

// StageIndex returns the position of stage in the pipeline, or -1.
func (c *Config) StageIndex(stage string) int {
	return slices.Index(c.Stages, stage)
}

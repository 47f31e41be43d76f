package dto

import (
	"fornada/internal/core/types"
)

// UpdateSettingsRequest replaces the application configuration.
type UpdateSettingsRequest struct {
	MarginDefault types.Money `json:"marginDefault"`
	Stages        []string    `json:"stages" binding:"required,min=1"`
	ConsumeStage  string      `json:"consumeStage" binding:"required"`
}

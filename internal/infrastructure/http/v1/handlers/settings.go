package handlers

import (
	"github.com/gin-gonic/gin"

	"fornada/internal/domain/settings"
	"fornada/internal/infrastructure/http/v1/dto"
)

// SettingsHandler handles the application configuration endpoints.
type SettingsHandler struct {
	*BaseHandler
	service *settings.Service
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(base *BaseHandler, service *settings.Service) *SettingsHandler {
	return &SettingsHandler{BaseHandler: base, service: service}
}

// Get handles GET /settings
func (h *SettingsHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	cfg, err := h.service.Get(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, cfg)
}

// Update handles PUT /settings
func (h *SettingsHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.UpdateSettingsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cfg := &settings.Config{
		MarginDefault: req.MarginDefault,
		Stages:        req.Stages,
		ConsumeStage:  req.ConsumeStage,
	}

	if err := h.service.Update(ctx, cfg); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, cfg)
}

// RegisterRoutes registers settings routes on the group.
func (h *SettingsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Get)
	rg.PUT("", h.Update)
}

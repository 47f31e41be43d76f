package handlers

import (
	"github.com/gin-gonic/gin"

	"fornada/internal/domain/catalogs/ingredient"
	"fornada/internal/infrastructure/http/v1/dto"
)

// IngredientHandler handles ingredient catalog endpoints.
type IngredientHandler struct {
	*BaseHandler
	service *ingredient.Service
}

// NewIngredientHandler creates a new ingredient handler.
func NewIngredientHandler(base *BaseHandler, service *ingredient.Service) *IngredientHandler {
	return &IngredientHandler{BaseHandler: base, service: service}
}

// Create handles POST /catalog/ingredients
func (h *IngredientHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateIngredientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ing := ingredient.New(req.Name, req.Unit)
	if err := h.service.Create(ctx, ing); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, ing.ID.String())
}

// Get handles GET /catalog/ingredients/:id
func (h *IngredientHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	ingredientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	ing, err := h.service.GetByID(ctx, ingredientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, ing)
}

// List handles GET /catalog/ingredients
func (h *IngredientHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	includeInactive := c.Query("includeInactive") == "true"
	items, err := h.service.List(ctx, includeInactive)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: items, Total: len(items)})
}

// Update handles PUT /catalog/ingredients/:id
func (h *IngredientHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	ingredientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateIngredientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ing, err := h.service.GetByID(ctx, ingredientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	ing.SetVersion(req.Version)
	if req.Name != nil {
		ing.Name = *req.Name
	}
	if req.Unit != nil {
		ing.Unit = *req.Unit
	}
	if req.IsActive != nil {
		ing.IsActive = *req.IsActive
	}

	if err := h.service.Update(ctx, ing); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, ing)
}

// Deactivate handles DELETE /catalog/ingredients/:id
func (h *IngredientHandler) Deactivate(c *gin.Context) {
	ctx := c.Request.Context()

	ingredientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Deactivate(ctx, ingredientID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// RecordPrice handles POST /catalog/ingredients/:id/prices
func (h *IngredientHandler) RecordPrice(c *gin.Context) {
	ctx := c.Request.Context()

	ingredientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.RecordPriceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.RecordPrice(ctx, ingredientID, req.Price); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "price recorded")
}

// RegisterRoutes registers ingredient routes on the group.
func (h *IngredientHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Deactivate)
	rg.POST("/:id/prices", h.RecordPrice)
}

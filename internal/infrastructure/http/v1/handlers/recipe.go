package handlers

import (
	"github.com/gin-gonic/gin"

	"fornada/internal/domain/catalogs/recipe"
	"fornada/internal/infrastructure/http/v1/dto"
)

// RecipeHandler handles recipe catalog endpoints.
type RecipeHandler struct {
	*BaseHandler
	service *recipe.Service
}

// NewRecipeHandler creates a new recipe handler.
func NewRecipeHandler(base *BaseHandler, service *recipe.Service) *RecipeHandler {
	return &RecipeHandler{BaseHandler: base, service: service}
}

// Create handles POST /catalog/recipes
func (h *RecipeHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateRecipeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	r := recipe.New(req.Name, req.YieldQty, req.YieldUnit)
	if err := dto.ApplyItems(r, req.Items); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(ctx, r); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, r.ID.String())
}

// Get handles GET /catalog/recipes/:id
func (h *RecipeHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	r, err := h.service.GetByID(ctx, recipeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, r)
}

// List handles GET /catalog/recipes
func (h *RecipeHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	includeInactive := c.Query("includeInactive") == "true"
	items, err := h.service.List(ctx, includeInactive)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: items, Total: len(items)})
}

// Update handles PUT /catalog/recipes/:id
func (h *RecipeHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateRecipeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	r, err := h.service.GetByID(ctx, recipeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	r.SetVersion(req.Version)
	if req.Name != nil {
		r.Name = *req.Name
	}
	if req.YieldQty != nil {
		r.YieldQty = *req.YieldQty
	}
	if req.YieldUnit != nil {
		r.YieldUnit = *req.YieldUnit
	}
	if req.IsActive != nil {
		r.IsActive = *req.IsActive
	}
	if req.Items != nil {
		if err := dto.ApplyItems(r, req.Items); err != nil {
			h.Error(c, err)
			return
		}
	}

	if err := h.service.Update(ctx, r); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, r)
}

// Deactivate handles DELETE /catalog/recipes/:id
func (h *RecipeHandler) Deactivate(c *gin.Context) {
	ctx := c.Request.Context()

	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Deactivate(ctx, recipeID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers recipe routes on the group.
func (h *RecipeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Deactivate)
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/domain/catalogs/product"
	"fornada/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles product catalog endpoints.
type ProductHandler struct {
	*BaseHandler
	service *product.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	return &ProductHandler{BaseHandler: base, service: service}
}

// Create handles POST /catalog/products
func (h *ProductHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := product.New(req.Name)
	if req.RecipeID != nil {
		recipeID, err := id.Parse(*req.RecipeID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid recipe id"))
			return
		}
		p.RecipeID = &recipeID
	}
	p.ManualPrice = req.ManualPrice

	if err := h.service.Create(ctx, p); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, p.ID.String())
}

// Get handles GET /catalog/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetByID(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, p)
}

// List handles GET /catalog/products
func (h *ProductHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	includeInactive := c.Query("includeInactive") == "true"
	items, err := h.service.List(ctx, includeInactive)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: items, Total: len(items)})
}

// Update handles PUT /catalog/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.GetByID(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	p.SetVersion(req.Version)
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.RecipeID != nil {
		recipeID, err := id.Parse(*req.RecipeID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid recipe id"))
			return
		}
		p.RecipeID = &recipeID
	}
	if req.ManualPrice != nil {
		p.ManualPrice = req.ManualPrice
	}
	if req.ClearPrice {
		p.ManualPrice = nil
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := h.service.Update(ctx, p); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, p)
}

// Deactivate handles DELETE /catalog/products/:id
func (h *ProductHandler) Deactivate(c *gin.Context) {
	ctx := c.Request.Context()

	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Deactivate(ctx, productID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers product routes on the group.
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Deactivate)
}

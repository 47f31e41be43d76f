package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/shopspring/decimal"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/domain/planning"
	"fornada/internal/infrastructure/http/v1/dto"
)

// PlanningHandler exposes the costing and explosion engines directly,
// for previews that do not belong to a stored order.
type PlanningHandler struct {
	*BaseHandler
	service *planning.Service
}

// NewPlanningHandler creates a new planning handler.
func NewPlanningHandler(base *BaseHandler, service *planning.Service) *PlanningHandler {
	return &PlanningHandler{BaseHandler: base, service: service}
}

// AverageCost handles GET /planning/ingredients/:id/average-cost
func (h *PlanningHandler) AverageCost(c *gin.Context) {
	ctx := c.Request.Context()

	ingredientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	cost, err := h.service.AverageCost(ctx, ingredientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"ingredientId": ingredientID, "averageCost": cost})
}

// ProductCost handles GET /planning/products/:id/estimated-cost
func (h *PlanningHandler) ProductCost(c *gin.Context) {
	ctx := c.Request.Context()

	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	cost, err := h.service.EstimateProductUnitCost(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"productId": productID, "estimatedUnitCost": cost})
}

// Explode handles GET /planning/recipes/:id/explosion?factor=2.5
func (h *PlanningHandler) Explode(c *gin.Context) {
	ctx := c.Request.Context()

	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	factor := decimal.NewFromInt(1)
	if raw := c.Query("factor"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || !parsed.IsPositive() {
			h.Error(c, apperror.NewValidation("factor must be a positive number"))
			return
		}
		factor = parsed
	}

	required, err := h.service.Explode(ctx, recipeID, factor)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"recipeId": recipeID, "factor": factor, "ingredients": required})
}

// Shortages handles POST /planning/shortages: what-if check for a set of
// product lines without creating an order.
func (h *PlanningHandler) Shortages(c *gin.Context) {
	ctx := c.Request.Context()

	lines, ok := h.bindLines(c)
	if !ok {
		return
	}

	shortages, err := h.service.Shortages(ctx, lines)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: shortages, Total: len(shortages)})
}

// Requirements handles POST /planning/requirements.
func (h *PlanningHandler) Requirements(c *gin.Context) {
	ctx := c.Request.Context()

	lines, ok := h.bindLines(c)
	if !ok {
		return
	}

	required, err := h.service.RequiredIngredients(ctx, lines)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"required": required})
}

func (h *PlanningHandler) bindLines(c *gin.Context) ([]planning.OrderLine, bool) {
	var req struct {
		Items []dto.OrderItemRequest `json:"items" binding:"required,min=1"`
	}
	if !h.BindJSON(c, &req) {
		return nil, false
	}

	lines := make([]planning.OrderLine, 0, len(req.Items))
	for i, item := range req.Items {
		productID, err := id.Parse(item.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid product id").
				WithDetail("lineNo", i+1))
			return nil, false
		}
		lines = append(lines, planning.OrderLine{ProductID: productID, Qty: item.Qty})
	}
	return lines, true
}

// RegisterRoutes registers planning routes on the group.
func (h *PlanningHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ingredients/:id/average-cost", h.AverageCost)
	rg.GET("/products/:id/estimated-cost", h.ProductCost)
	rg.GET("/recipes/:id/explosion", h.Explode)
	rg.POST("/shortages", h.Shortages)
	rg.POST("/requirements", h.Requirements)
}

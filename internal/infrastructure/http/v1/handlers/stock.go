package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/domain/stock"
	"fornada/internal/infrastructure/http/v1/dto"
	"fornada/internal/infrastructure/storage/postgres"
)

// StockHandler handles lots, consumption and the stock ledger.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
	auditor *postgres.AuditService
}

// NewStockHandler creates a new stock handler. The auditor is optional.
func NewStockHandler(base *BaseHandler, service *stock.Service, auditor *postgres.AuditService) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service, auditor: auditor}
}

// CreateLot handles POST /stock/lots
func (h *StockHandler) CreateLot(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateLotRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ingredientID, err := id.Parse(req.IngredientID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid ingredient id"))
		return
	}

	lot, err := h.service.CreateLot(ctx, ingredientID, req.Qty, req.Unit, req.UnitCost, req.BestBefore, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}

	auditLog(ctx, h.auditor, "lot", lot.ID, postgres.AuditActionCreate, map[string]any{
		"ingredientId": ingredientID,
		"qty":          req.Qty,
		"unitCost":     req.UnitCost,
	})

	h.Created(c, lot.ID.String())
}

// GetLot handles GET /stock/lots/:id
func (h *StockHandler) GetLot(c *gin.Context) {
	ctx := c.Request.Context()

	lotID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	lot, err := h.service.GetLot(ctx, lotID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, lot)
}

// OpenLots handles GET /stock/ingredients/:id/lots
func (h *StockHandler) OpenLots(c *gin.Context) {
	ctx := c.Request.Context()

	ingredientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	lots, err := h.service.OpenLots(ctx, ingredientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: lots, Total: len(lots)})
}

// Remaining handles GET /stock/ingredients/:id/remaining
func (h *StockHandler) Remaining(c *gin.Context) {
	ctx := c.Request.Context()

	ingredientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	qty, err := h.service.RemainingQuantity(ctx, ingredientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"ingredientId": ingredientID, "remaining": qty})
}

// Ledger handles GET /stock/ingredients/:id/ledger
func (h *StockHandler) Ledger(c *gin.Context) {
	ctx := c.Request.Context()

	ingredientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	filter := stock.MoveFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if kind := c.Query("kind"); kind != "" {
		mk := stock.MoveKind(kind)
		filter.Kind = &mk
	}
	if rawOrderID := c.Query("orderId"); rawOrderID != "" {
		orderID, err := id.Parse(rawOrderID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid order id"))
			return
		}
		filter.OrderID = &orderID
	}

	moves, err := h.service.Ledger(ctx, ingredientID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: moves, Total: len(moves)})
}

// Consume handles POST /stock/consume
func (h *StockHandler) Consume(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ConsumeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ingredientID, err := id.Parse(req.IngredientID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid ingredient id"))
		return
	}

	var orderID *id.ID
	if req.OrderID != nil {
		parsed, err := id.Parse(*req.OrderID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid order id"))
			return
		}
		orderID = &parsed
	}

	result, err := h.service.Consume(ctx, ingredientID, req.Qty, orderID, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// Discard handles POST /stock/lots/:id/discard
func (h *StockHandler) Discard(c *gin.Context) {
	ctx := c.Request.Context()

	lotID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.DiscardRequest
	if !h.BindJSON(c, &req) {
		return
	}

	discarded, err := h.service.DiscardFromLot(ctx, lotID, req.Qty, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	auditLog(ctx, h.auditor, "lot", lotID, postgres.AuditActionDiscard, map[string]any{
		"qty":    discarded,
		"reason": req.Reason,
	})

	h.OK(c, gin.H{"lotId": lotID, "discarded": discarded})
}

// Adjust handles POST /stock/lots/:id/adjust
func (h *StockHandler) Adjust(c *gin.Context) {
	ctx := c.Request.Context()

	lotID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AdjustRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lot, err := h.service.AdjustLot(ctx, lotID, req.Delta, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	auditLog(ctx, h.auditor, "lot", lotID, postgres.AuditActionUpdate, map[string]any{
		"delta":  req.Delta,
		"reason": req.Reason,
	})

	h.OK(c, lot)
}

// DiscardExpired handles POST /stock/discard-expired
func (h *StockHandler) DiscardExpired(c *gin.Context) {
	ctx := c.Request.Context()

	// Body is optional; asOf defaults to now.
	var req dto.DiscardExpiredRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	asOf := time.Now().UTC()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	discarded, err := h.service.DiscardExpired(ctx, asOf)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: discarded, Total: len(discarded)})
}

// Losses handles GET /stock/losses
func (h *StockHandler) Losses(c *gin.Context) {
	ctx := c.Request.Context()

	var ingredientID *id.ID
	if raw := c.Query("ingredientId"); raw != "" {
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid ingredient id"))
			return
		}
		ingredientID = &parsed
	}

	losses, err := h.service.Losses(ctx, ingredientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: losses, Total: len(losses)})
}

// RegisterRoutes registers stock routes on the group.
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/lots", h.CreateLot)
	rg.GET("/lots/:id", h.GetLot)
	rg.POST("/lots/:id/discard", h.Discard)
	rg.POST("/lots/:id/adjust", h.Adjust)
	rg.GET("/ingredients/:id/lots", h.OpenLots)
	rg.GET("/ingredients/:id/remaining", h.Remaining)
	rg.GET("/ingredients/:id/ledger", h.Ledger)
	rg.POST("/consume", h.Consume)
	rg.POST("/discard-expired", h.DiscardExpired)
	rg.GET("/losses", h.Losses)
}

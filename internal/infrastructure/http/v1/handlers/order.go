package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/domain/orders"
	"fornada/internal/infrastructure/http/v1/dto"
	"fornada/internal/infrastructure/storage/postgres"
)

// OrderHandler handles order document endpoints.
type OrderHandler struct {
	*BaseHandler
	service *orders.Service
	auditor *postgres.AuditService
}

// NewOrderHandler creates a new order handler. The auditor is optional.
func NewOrderHandler(base *BaseHandler, service *orders.Service, auditor *postgres.AuditService) *OrderHandler {
	return &OrderHandler{BaseHandler: base, service: service, auditor: auditor}
}

// Create handles POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	clientID, err := id.Parse(req.ClientID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid client id"))
		return
	}

	order := orders.NewOrder(clientID, req.Stage)
	order.DeliveryDate = req.DeliveryDate
	order.Notes = req.Notes
	for i, item := range req.Items {
		productID, err := id.Parse(item.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid product id").
				WithDetail("lineNo", i+1))
			return
		}
		order.AddItem(productID, item.Qty)
	}

	if err := h.service.Create(ctx, order); err != nil {
		h.Error(c, err)
		return
	}

	auditLog(ctx, h.auditor, "order", order.ID, postgres.AuditActionCreate, map[string]any{
		"number": order.Number,
		"total":  order.Total,
	})

	c.JSON(http.StatusCreated, order)
}

// Get handles GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	order, err := h.service.GetByID(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, order)
}

// List handles GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := orders.ListFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if rawClientID := c.Query("clientId"); rawClientID != "" {
		clientID, err := id.Parse(rawClientID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid client id"))
			return
		}
		filter.ClientID = &clientID
	}
	if rawPaid := c.Query("paid"); rawPaid != "" {
		paid := rawPaid == "true"
		filter.Paid = &paid
	}

	list, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: list, Total: len(list)})
}

// Update handles PUT /orders/:id
func (h *OrderHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.service.GetByID(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	order.SetVersion(req.Version)
	if req.ClientID != nil {
		clientID, err := id.Parse(*req.ClientID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid client id"))
			return
		}
		order.ClientID = clientID
	}
	if req.DeliveryDate != nil {
		order.DeliveryDate = req.DeliveryDate
	}
	if req.Notes != nil {
		order.Notes = *req.Notes
	}

	if err := h.service.Update(ctx, order); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, order)
}

// MoveStage handles POST /orders/:id/stage
func (h *OrderHandler) MoveStage(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.MoveStageRequest
	if !h.BindJSON(c, &req) {
		return
	}

	consumed, err := h.service.MoveStage(ctx, orderID, req.Stage)
	if err != nil {
		h.Error(c, err)
		return
	}

	action := postgres.AuditActionUpdate
	if consumed != nil {
		action = postgres.AuditActionConsume
	}
	auditLog(ctx, h.auditor, "order", orderID, action, map[string]any{"stage": req.Stage})

	h.OK(c, gin.H{"stage": req.Stage, "consumed": consumed})
}

// MarkPaid handles POST /orders/:id/paid
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.MarkPaidRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.MarkPaid(ctx, orderID, req.Paid); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "payment flag updated")
}

// Shortages handles GET /orders/:id/shortages
func (h *OrderHandler) Shortages(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	shortages, err := h.service.Shortages(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: shortages, Total: len(shortages)})
}

// Requirements handles GET /orders/:id/requirements
func (h *OrderHandler) Requirements(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	required, err := h.service.RequiredIngredients(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"required": required})
}

// History handles GET /orders/:id/audit
func (h *OrderHandler) History(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if h.auditor == nil {
		h.OK(c, dto.ListResponse{Items: []struct{}{}, Total: 0})
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)
	entries, err := h.auditor.GetEntityHistory(ctx, "order", orderID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: entries, Total: len(entries)})
}

// RegisterRoutes registers order routes on the group.
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/stage", h.MoveStage)
	rg.POST("/:id/paid", h.MarkPaid)
	rg.GET("/:id/shortages", h.Shortages)
	rg.GET("/:id/requirements", h.Requirements)
	rg.GET("/:id/audit", h.History)
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"fornada/internal/domain/catalogs/client"
	"fornada/internal/infrastructure/http/v1/dto"
)

// ClientHandler handles client catalog endpoints.
type ClientHandler struct {
	*BaseHandler
	service *client.Service
}

// NewClientHandler creates a new client handler.
func NewClientHandler(base *BaseHandler, service *client.Service) *ClientHandler {
	return &ClientHandler{BaseHandler: base, service: service}
}

// Create handles POST /catalog/clients
func (h *ClientHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateClientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cl := client.New(req.Name)
	cl.Phone = req.Phone
	cl.Address = req.Address
	cl.Notes = req.Notes

	if err := h.service.Create(ctx, cl); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, cl.ID.String())
}

// Get handles GET /catalog/clients/:id
func (h *ClientHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	clientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	cl, err := h.service.GetByID(ctx, clientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, cl)
}

// List handles GET /catalog/clients
func (h *ClientHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	includeInactive := c.Query("includeInactive") == "true"
	items, err := h.service.List(ctx, includeInactive)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: items, Total: len(items)})
}

// Update handles PUT /catalog/clients/:id
func (h *ClientHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	clientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateClientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cl, err := h.service.GetByID(ctx, clientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	cl.SetVersion(req.Version)
	if req.Name != nil {
		cl.Name = *req.Name
	}
	if req.Phone != nil {
		cl.Phone = *req.Phone
	}
	if req.Address != nil {
		cl.Address = *req.Address
	}
	if req.Notes != nil {
		cl.Notes = *req.Notes
	}
	if req.IsActive != nil {
		cl.IsActive = *req.IsActive
	}

	if err := h.service.Update(ctx, cl); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, cl)
}

// Deactivate handles DELETE /catalog/clients/:id
func (h *ClientHandler) Deactivate(c *gin.Context) {
	ctx := c.Request.Context()

	clientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Deactivate(ctx, clientID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers client routes on the group.
func (h *ClientHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Deactivate)
}

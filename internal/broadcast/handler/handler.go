package handler

import (
	"net/http"

	"member_portal_backend/internal/broadcast/service"
	"member_portal_backend/internal/broadcast/transport"
	"member_portal_backend/platform/httpkit"
	"member_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles broadcast HTTP requests. All routes are admin-only.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// New creates a new broadcast handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

// HandleCreate composes a broadcast and enqueues its delivery.
// POST /api/v1/admin/broadcasts
func (h *Handler) HandleCreate(c *gin.Context) {
	adminID, ok := httpkit.MustUserID(c)
	if !ok {
		return
	}

	var req transport.CreateBroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	id, err := h.service.Create(c.Request.Context(), adminID, req.Input())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, gin.H{"id": id})
}

// HandleList lists broadcasts.
// GET /api/v1/admin/broadcasts
func (h *Handler) HandleList(c *gin.Context) {
	broadcasts, err := h.service.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	result := make([]transport.BroadcastResponse, len(broadcasts))
	for i := range broadcasts {
		result[i] = transport.ToBroadcastResponse(&broadcasts[i])
	}
	httpkit.OK(c, result)
}

// HandleGet returns a broadcast with its delivery outcomes.
// GET /api/v1/admin/broadcasts/:id
func (h *Handler) HandleGet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid broadcast ID", nil)
		return
	}

	b, deliveries, err := h.service.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToBroadcastDetailResponse(b, deliveries))
}

package handler

import (
	"net/http"

	"member_portal_backend/internal/notices/service"
	"member_portal_backend/internal/notices/transport"
	"member_portal_backend/platform/httpkit"
	"member_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles notice HTTP requests.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// New creates a new notices handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

// HandleCreate creates a notice.
// POST /api/v1/admin/notices
func (h *Handler) HandleCreate(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	id, err := h.service.Create(c.Request.Context(), req.Input())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, gin.H{"id": id})
}

// HandleUpdate modifies a notice.
// PUT /api/v1/admin/notices/:id
func (h *Handler) HandleUpdate(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	req, ok := h.bind(c)
	if !ok {
		return
	}

	if err := h.service.Update(c.Request.Context(), id, req.Input()); httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleDelete soft-deletes a notice.
// DELETE /api/v1/admin/notices/:id
func (h *Handler) HandleDelete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleAdminList lists all notices including drafts.
// GET /api/v1/admin/notices
func (h *Handler) HandleAdminList(c *gin.Context) {
	h.list(c, false)
}

// HandleList lists published notices for members, pinned first.
// GET /api/v1/notices
func (h *Handler) HandleList(c *gin.Context) {
	h.list(c, true)
}

func (h *Handler) list(c *gin.Context, publishedOnly bool) {
	notices, err := h.service.List(c.Request.Context(), publishedOnly)
	if httpkit.HandleError(c, err) {
		return
	}

	result := make([]transport.NoticeResponse, len(notices))
	for i := range notices {
		result[i] = transport.ToNoticeResponse(&notices[i])
	}
	httpkit.OK(c, result)
}

// HandleGet returns a published notice.
// GET /api/v1/notices/:id
func (h *Handler) HandleGet(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	notice, err := h.service.GetPublished(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToNoticeResponse(notice))
}

// HandleAdminGet returns a notice, drafts included.
// GET /api/v1/admin/notices/:id
func (h *Handler) HandleAdminGet(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	notice, err := h.service.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToNoticeResponse(notice))
}

func (h *Handler) bind(c *gin.Context) (transport.NoticeRequest, bool) {
	var req transport.NoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return req, false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return req, false
	}
	return req, true
}

func (h *Handler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid notice ID", nil)
		return uuid.UUID{}, false
	}
	return id, true
}

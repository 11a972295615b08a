package handler

import (
	"net/http"

	"member_portal_backend/internal/events/repository"
	"member_portal_backend/internal/events/service"
	"member_portal_backend/internal/events/transport"
	"member_portal_backend/platform/httpkit"
	"member_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles event HTTP requests.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// New creates a new events handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

// HandleCreate creates an event with its questions, files, and group links.
// POST /api/v1/admin/events
func (h *Handler) HandleCreate(c *gin.Context) {
	req, ok := h.bindEvent(c)
	if !ok {
		return
	}

	id, err := h.service.Create(c.Request.Context(), req.Input())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, gin.H{"id": id})
}

// HandleUpdate replaces the event's state. Questions, attachments, and group
// links are reconciled against the submitted lists.
// PUT /api/v1/admin/events/:id
func (h *Handler) HandleUpdate(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	req, ok := h.bindEvent(c)
	if !ok {
		return
	}

	if err := h.service.Update(c.Request.Context(), id, req.Input()); httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleDelete soft-deletes an event.
// DELETE /api/v1/admin/events/:id
func (h *Handler) HandleDelete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleAdminList lists all events including drafts.
// GET /api/v1/admin/events
func (h *Handler) HandleAdminList(c *gin.Context) {
	events, err := h.service.ListAll(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toEventResponses(events))
}

// HandleAdminGet returns an event with its children, drafts included.
// GET /api/v1/admin/events/:id
func (h *Handler) HandleAdminGet(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.service.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToDetailResponse(detail))
}

// HandleListRegistrations returns the attendee list for an event.
// GET /api/v1/admin/events/:id/registrations
func (h *Handler) HandleListRegistrations(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	regs, err := h.service.ListRegistrations(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	result := make([]transport.RegistrationResponse, len(regs))
	for i, reg := range regs {
		result[i] = transport.ToRegistrationResponse(reg)
	}
	httpkit.OK(c, result)
}

// HandleUploadURL returns a presigned URL for uploading an attachment.
// POST /api/v1/admin/events/:id/files/upload-url
func (h *Handler) HandleUploadURL(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req transport.UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	presigned, err := h.service.UploadURL(c.Request.Context(), id, req.FileName, req.ContentType, req.SizeBytes)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, presigned)
}

// HandleList lists published events visible to the member.
// GET /api/v1/events
func (h *Handler) HandleList(c *gin.Context) {
	userID, ok := httpkit.MustUserID(c)
	if !ok {
		return
	}

	events, err := h.service.ListVisible(c.Request.Context(), userID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toEventResponses(events))
}

// HandleGet returns an event visible to the member.
// GET /api/v1/events/:id
func (h *Handler) HandleGet(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := httpkit.MustUserID(c)
	if !ok {
		return
	}

	detail, err := h.service.GetVisible(c.Request.Context(), id, userID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToDetailResponse(detail))
}

// HandleRegister registers the member for an event.
// POST /api/v1/events/:id/registrations
func (h *Handler) HandleRegister(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := httpkit.MustUserID(c)
	if !ok {
		return
	}

	var req transport.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	regID, err := h.service.Register(c.Request.Context(), id, userID, req.Answers)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, gin.H{"id": regID})
}

// HandleCancelRegistration cancels the member's registration.
// DELETE /api/v1/events/:id/registrations
func (h *Handler) HandleCancelRegistration(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := httpkit.MustUserID(c)
	if !ok {
		return
	}

	if err := h.service.CancelRegistration(c.Request.Context(), id, userID); httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleTicket returns the member's registration QR code as PNG.
// GET /api/v1/events/:id/ticket
func (h *Handler) HandleTicket(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := httpkit.MustUserID(c)
	if !ok {
		return
	}

	png, err := h.service.Ticket(c.Request.Context(), id, userID)
	if httpkit.HandleError(c, err) {
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// HandleFileDownloadURL returns a presigned download URL for an attachment.
// GET /api/v1/events/files/:fileId/download-url
func (h *Handler) HandleFileDownloadURL(c *gin.Context) {
	fileID, ok := h.parseID(c, "fileId")
	if !ok {
		return
	}
	userID, ok := httpkit.MustUserID(c)
	if !ok {
		return
	}

	presigned, err := h.service.DownloadURL(c.Request.Context(), fileID, userID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, presigned)
}

func (h *Handler) bindEvent(c *gin.Context) (transport.EventRequest, bool) {
	var req transport.EventRequest
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

func (h *Handler) parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid ID", nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func toEventResponses(events []repository.Event) []transport.EventResponse {
	result := make([]transport.EventResponse, len(events))
	for i := range events {
		result[i] = transport.ToEventResponse(&events[i])
	}
	return result
}

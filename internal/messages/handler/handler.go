package handler

import (
	"net/http"

	"member_portal_backend/internal/messages/repository"
	"member_portal_backend/internal/messages/service"
	"member_portal_backend/internal/messages/transport"
	"member_portal_backend/platform/httpkit"
	"member_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles message thread HTTP requests.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// New creates a new messages handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

// HandleStartThread creates a thread with its first message.
// POST /api/v1/messages/threads
func (h *Handler) HandleStartThread(c *gin.Context) {
	userID, ok := httpkit.MustUserID(c)
	if !ok {
		return
	}

	var req transport.StartThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	id, err := h.service.StartThread(c.Request.Context(), userID, req.Subject, req.Body)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, gin.H{"id": id})
}

// HandleListThreads lists the member's threads.
// GET /api/v1/messages/threads
func (h *Handler) HandleListThreads(c *gin.Context) {
	userID, ok := httpkit.MustUserID(c)
	if !ok {
		return
	}

	threads, err := h.service.ListThreads(c.Request.Context(), userID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toThreadResponses(threads))
}

// HandleReadThread returns the member's thread and marks staff posts read.
// GET /api/v1/messages/threads/:id
func (h *Handler) HandleReadThread(c *gin.Context) {
	threadID, ok := h.parseID(c)
	if !ok {
		return
	}
	userID, ok := httpkit.MustUserID(c)
	if !ok {
		return
	}

	thread, messages, err := h.service.ReadThread(c.Request.Context(), threadID, userID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToThreadDetailResponse(thread, messages))
}

// HandlePost adds a member message to the member's thread.
// POST /api/v1/messages/threads/:id/messages
func (h *Handler) HandlePost(c *gin.Context) {
	threadID, ok := h.parseID(c)
	if !ok {
		return
	}
	userID, ok := httpkit.MustUserID(c)
	if !ok {
		return
	}

	req, ok := h.bindPost(c)
	if !ok {
		return
	}

	id, err := h.service.Post(c.Request.Context(), threadID, userID, req.Body)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, gin.H{"id": id})
}

// HandleAdminListThreads lists every thread for the admin inbox.
// GET /api/v1/admin/messages/threads
func (h *Handler) HandleAdminListThreads(c *gin.Context) {
	threads, err := h.service.ListAllThreads(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toThreadResponses(threads))
}

// HandleAdminReadThread returns any thread and marks member posts read.
// GET /api/v1/admin/messages/threads/:id
func (h *Handler) HandleAdminReadThread(c *gin.Context) {
	threadID, ok := h.parseID(c)
	if !ok {
		return
	}

	thread, messages, err := h.service.ReadThreadAsStaff(c.Request.Context(), threadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToThreadDetailResponse(thread, messages))
}

// HandleAdminReply adds a staff reply to any thread.
// POST /api/v1/admin/messages/threads/:id/messages
func (h *Handler) HandleAdminReply(c *gin.Context) {
	threadID, ok := h.parseID(c)
	if !ok {
		return
	}
	staffID, ok := httpkit.MustUserID(c)
	if !ok {
		return
	}

	req, ok := h.bindPost(c)
	if !ok {
		return
	}

	id, err := h.service.PostAsStaff(c.Request.Context(), threadID, staffID, req.Body)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, gin.H{"id": id})
}

func (h *Handler) bindPost(c *gin.Context) (transport.PostMessageRequest, bool) {
	var req transport.PostMessageRequest
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
		httpkit.Error(c, http.StatusBadRequest, "invalid thread ID", nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func toThreadResponses(threads []repository.Thread) []transport.ThreadResponse {
	result := make([]transport.ThreadResponse, len(threads))
	for i := range threads {
		result[i] = transport.ToThreadResponse(&threads[i])
	}
	return result
}

package handler

import (
	"net/http"

	"member_portal_backend/internal/consultations/service"
	"member_portal_backend/internal/consultations/transport"
	"member_portal_backend/platform/httpkit"
	"member_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles consultation HTTP requests.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// New creates a new consultations handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

// HandleCreate creates a consultation with its schedules and questions.
// POST /api/v1/admin/consultations
func (h *Handler) HandleCreate(c *gin.Context) {
	var req transport.CreateConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	id, err := h.service.Create(c.Request.Context(), req.CreateInput())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, gin.H{"id": id})
}

// HandleUpdate replaces the consultation's state. Schedule slots and intake
// questions are reconciled against the submitted lists.
// PUT /api/v1/admin/consultations/:id
func (h *Handler) HandleUpdate(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	if err := h.service.Update(c.Request.Context(), id, req.UpdateInput()); httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleDelete soft-deletes a consultation.
// DELETE /api/v1/admin/consultations/:id
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

// HandleAdminList lists all consultations including closed ones.
// GET /api/v1/admin/consultations
func (h *Handler) HandleAdminList(c *gin.Context) {
	h.list(c, false)
}

// HandleList lists open consultations for members.
// GET /api/v1/consultations
func (h *Handler) HandleList(c *gin.Context) {
	h.list(c, true)
}

func (h *Handler) list(c *gin.Context, openOnly bool) {
	items, err := h.service.List(c.Request.Context(), openOnly)
	if httpkit.HandleError(c, err) {
		return
	}

	result := make([]transport.ConsultationResponse, len(items))
	for i := range items {
		result[i] = transport.ToConsultationResponse(&items[i], nil, nil)
	}
	httpkit.OK(c, result)
}

// HandleGet returns a consultation with its slots and questions.
// GET /api/v1/consultations/:id
func (h *Handler) HandleGet(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	cons, schedules, questions, err := h.service.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToConsultationResponse(cons, schedules, questions))
}

// HandleBook reserves a schedule slot for the authenticated member.
// POST /api/v1/consultations/:id/bookings
func (h *Handler) HandleBook(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	userID, ok := httpkit.MustUserID(c)
	if !ok {
		return
	}

	var req transport.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	bookingID, err := h.service.Book(c.Request.Context(), id, req.ScheduleID, userID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, gin.H{"id": bookingID})
}

// HandleCancelBooking cancels the member's booking for the consultation.
// DELETE /api/v1/consultations/:id/bookings
func (h *Handler) HandleCancelBooking(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	userID, ok := httpkit.MustUserID(c)
	if !ok {
		return
	}

	if err := h.service.CancelBooking(c.Request.Context(), id, userID); httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid consultation ID", nil)
		return uuid.UUID{}, false
	}
	return id, true
}

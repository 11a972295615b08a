package lifecycle

import (
	"net/http"

	"member_portal_backend/internal/members/repository"
	"member_portal_backend/platform/httpkit"
	"member_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WebhookRequest is the form-encoded lifecycle webhook payload.
type WebhookRequest struct {
	Email      string  `form:"email" validate:"required,email"`
	Status     int     `form:"status" validate:"required"`
	Password   *string `form:"password"`
	LastName   *string `form:"last_name"`
	FirstName  *string `form:"first_name"`
	Phone      *string `form:"phone"`
	PostalCode *string `form:"postal_code"`
	Address    *string `form:"address"`
}

// WebhookResponse is returned for a processed lifecycle event.
type WebhookResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Action  string    `json:"action"`
	UserID  uuid.UUID `json:"userId"`
}

// Handler handles lifecycle webhook HTTP requests.
type Handler struct {
	service *Service
	val     *validator.Validator
}

// NewHandler creates a new lifecycle handler.
func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// HandleLifecycleWebhook processes an inbound lifecycle notification.
// POST /api/v1/webhook/lifecycle
// Authenticated via X-Lifecycle-Token header (checked by middleware).
func (h *Handler) HandleLifecycleWebhook(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBind(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	result, err := h.service.Handle(c.Request.Context(), Event{
		Email:    req.Email,
		Status:   Status(req.Status),
		Password: req.Password,
		Profile: repository.ProfileFields{
			LastName:   req.LastName,
			FirstName:  req.FirstName,
			Phone:      req.Phone,
			PostalCode: req.PostalCode,
			Address:    req.Address,
		},
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, WebhookResponse{
		Success: true,
		Message: "lifecycle event processed",
		Action:  result.Action,
		UserID:  result.UserID,
	})
}

package handler

import (
	"net/http"

	"member_portal_backend/internal/members/service"
	"member_portal_backend/internal/members/transport"
	"member_portal_backend/platform/httpkit"
	"member_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles member profile and admin user/group HTTP requests.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// New creates a new members handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

// HandleGetProfile returns the authenticated member's profile.
// GET /api/v1/profile
func (h *Handler) HandleGetProfile(c *gin.Context) {
	userID, ok := httpkit.MustUserID(c)
	if !ok {
		return
	}

	user, err := h.service.GetProfile(c.Request.Context(), userID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToUserResponse(user))
}

// HandleUpdateProfile applies a partial profile update.
// PUT /api/v1/profile
func (h *Handler) HandleUpdateProfile(c *gin.Context) {
	userID, ok := httpkit.MustUserID(c)
	if !ok {
		return
	}

	var req transport.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), userID, req.Fields())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToUserResponse(user))
}

// HandleListUsers lists all active users.
// GET /api/v1/admin/users
func (h *Handler) HandleListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	result := make([]transport.UserResponse, len(users))
	for i := range users {
		result[i] = transport.ToUserResponse(&users[i])
	}
	httpkit.OK(c, result)
}

// HandleListGroups lists all groups.
// GET /api/v1/admin/groups
func (h *Handler) HandleListGroups(c *gin.Context) {
	groups, err := h.service.ListGroups(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	result := make([]transport.GroupResponse, len(groups))
	for i, g := range groups {
		result[i] = transport.GroupResponse{ID: g.ID, Name: g.Name, Description: g.Description}
	}
	httpkit.OK(c, result)
}

// HandleAddMembership adds a user to a group.
// POST /api/v1/admin/groups/:groupId/members
func (h *Handler) HandleAddMembership(c *gin.Context) {
	groupID, ok := h.parseGroupID(c)
	if !ok {
		return
	}

	var req transport.AddMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	if err := h.service.AddMembership(c.Request.Context(), req.UserID, groupID); httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleRemoveMembership removes a user from a group.
// DELETE /api/v1/admin/groups/:groupId/members/:userId
func (h *Handler) HandleRemoveMembership(c *gin.Context) {
	groupID, ok := h.parseGroupID(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid user ID", nil)
		return
	}

	if err := h.service.RemoveMembership(c.Request.Context(), userID, groupID); httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) parseGroupID(c *gin.Context) (uuid.UUID, bool) {
	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid group ID", nil)
		return uuid.UUID{}, false
	}
	return groupID, true
}

package handler

import (
	"strconv"

	"member_portal_backend/internal/search/service"
	"member_portal_backend/internal/search/transport"
	"member_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler handles search HTTP requests.
type Handler struct {
	service *service.Service
}

// New creates a new search handler.
func New(svc *service.Service) *Handler {
	return &Handler{service: svc}
}

// HandleSearch runs a portal-wide search.
// GET /api/v1/search?q=...&limit=...
func (h *Handler) HandleSearch(c *gin.Context) {
	query := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	results, err := h.service.Search(c.Request.Context(), query, limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSearchResponse(results))
}

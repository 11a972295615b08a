// Package lifecycle provides the user lifecycle webhook bounded context module.
package lifecycle

import (
	apphttp "member_portal_backend/internal/http"
	"member_portal_backend/platform/events"
	"member_portal_backend/platform/logger"
	"member_portal_backend/platform/validator"
)

// Module is the lifecycle bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	token   string
}

// NewModule creates and initializes the lifecycle module with all its dependencies.
func NewModule(directory MemberDirectory, groups GroupNames, token string, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	service := NewService(directory, groups, bus, log)
	handler := NewHandler(service, val)

	return &Module{handler: handler, token: token}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "lifecycle"
}

// RegisterRoutes mounts webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public webhook endpoint (shared-secret auth, no JWT)
	webhookGroup := ctx.V1.Group("/webhook")
	webhookGroup.Use(TokenAuthMiddleware(m.token))
	webhookGroup.POST("/lifecycle", m.handler.HandleLifecycleWebhook)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

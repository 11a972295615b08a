// Package messages provides the member/staff support messaging module.
package messages

import (
	apphttp "member_portal_backend/internal/http"
	"member_portal_backend/internal/messages/handler"
	"member_portal_backend/internal/messages/repository"
	"member_portal_backend/internal/messages/service"
	"member_portal_backend/platform/logger"
	"member_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the messages bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the messages module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{handler: h}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "messages"
}

// RegisterRoutes mounts messaging routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/messages/threads", m.handler.HandleStartThread)
	ctx.Protected.GET("/messages/threads", m.handler.HandleListThreads)
	ctx.Protected.GET("/messages/threads/:id", m.handler.HandleReadThread)
	ctx.Protected.POST("/messages/threads/:id/messages", m.handler.HandlePost)

	ctx.Admin.GET("/messages/threads", m.handler.HandleAdminListThreads)
	ctx.Admin.GET("/messages/threads/:id", m.handler.HandleAdminReadThread)
	ctx.Admin.POST("/messages/threads/:id/messages", m.handler.HandleAdminReply)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

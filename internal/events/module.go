// Package events provides the event bounded context module: admin-managed
// events with registration questions, object storage attachments, and group
// scoped visibility, plus member registration with QR tickets.
package events

import (
	"member_portal_backend/internal/events/handler"
	"member_portal_backend/internal/events/repository"
	"member_portal_backend/internal/events/service"
	apphttp "member_portal_backend/internal/http"
	"member_portal_backend/internal/storage"
	platformevents "member_portal_backend/platform/events"
	"member_portal_backend/platform/logger"
	"member_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the events bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the events module. groups resolves member
// group memberships for visibility; store may be nil when object storage is
// disabled; bus may be nil when registration notifications are not wired.
func NewModule(pool *pgxpool.Pool, groups service.GroupDirectory, store storage.Service, bus platformevents.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, groups, store, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "events"
}

// RegisterRoutes mounts event routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/events", m.handler.HandleList)
	ctx.Protected.GET("/events/:id", m.handler.HandleGet)
	ctx.Protected.POST("/events/:id/registrations", m.handler.HandleRegister)
	ctx.Protected.DELETE("/events/:id/registrations", m.handler.HandleCancelRegistration)
	ctx.Protected.GET("/events/:id/ticket", m.handler.HandleTicket)
	ctx.Protected.GET("/events/files/:fileId/download-url", m.handler.HandleFileDownloadURL)

	ctx.Admin.GET("/events", m.handler.HandleAdminList)
	ctx.Admin.GET("/events/:id", m.handler.HandleAdminGet)
	ctx.Admin.POST("/events", m.handler.HandleCreate)
	ctx.Admin.PUT("/events/:id", m.handler.HandleUpdate)
	ctx.Admin.DELETE("/events/:id", m.handler.HandleDelete)
	ctx.Admin.GET("/events/:id/registrations", m.handler.HandleListRegistrations)
	ctx.Admin.POST("/events/:id/files/upload-url", m.handler.HandleUploadURL)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

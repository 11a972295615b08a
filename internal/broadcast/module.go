// Package broadcast provides the announcement broadcast module: admin
// composed emails delivered asynchronously to member groups.
package broadcast

import (
	"member_portal_backend/internal/broadcast/handler"
	"member_portal_backend/internal/broadcast/repository"
	"member_portal_backend/internal/broadcast/service"
	"member_portal_backend/internal/email"
	apphttp "member_portal_backend/internal/http"
	"member_portal_backend/platform/logger"
	"member_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the broadcast bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the broadcast module. enqueuer may be nil
// when the job queue is not configured.
func NewModule(pool *pgxpool.Pool, recipients service.RecipientSource, enqueuer service.Enqueuer, sender email.Sender, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, recipients, enqueuer, sender, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "broadcast"
}

// Service exposes the broadcast service to the queue worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts broadcast routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.POST("/broadcasts", m.handler.HandleCreate)
	ctx.Admin.GET("/broadcasts", m.handler.HandleList)
	ctx.Admin.GET("/broadcasts/:id", m.handler.HandleGet)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

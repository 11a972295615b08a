// Package notices provides the notice board bounded context module.
package notices

import (
	apphttp "member_portal_backend/internal/http"
	"member_portal_backend/internal/notices/handler"
	"member_portal_backend/internal/notices/repository"
	"member_portal_backend/internal/notices/service"
	"member_portal_backend/platform/logger"
	"member_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the notices bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the notices module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{handler: h}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notices"
}

// RegisterRoutes mounts notice routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/notices", m.handler.HandleList)
	ctx.Protected.GET("/notices/:id", m.handler.HandleGet)

	ctx.Admin.GET("/notices", m.handler.HandleAdminList)
	ctx.Admin.GET("/notices/:id", m.handler.HandleAdminGet)
	ctx.Admin.POST("/notices", m.handler.HandleCreate)
	ctx.Admin.PUT("/notices/:id", m.handler.HandleUpdate)
	ctx.Admin.DELETE("/notices/:id", m.handler.HandleDelete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

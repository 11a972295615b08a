// Package search provides portal-wide search across events, notices, and
// consultations.
package search

import (
	apphttp "member_portal_backend/internal/http"
	"member_portal_backend/internal/search/handler"
	"member_portal_backend/internal/search/repository"
	"member_portal_backend/internal/search/service"
	"member_portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the search module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the search module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc)

	return &Module{handler: h}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "search"
}

// RegisterRoutes mounts the search route on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/search", m.handler.HandleSearch)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

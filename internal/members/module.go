// Package members provides the member account bounded context module:
// user accounts, groups, memberships, and member profiles.
package members

import (
	"member_portal_backend/internal/members/handler"
	"member_portal_backend/internal/members/repository"
	"member_portal_backend/internal/members/service"
	apphttp "member_portal_backend/internal/http"
	"member_portal_backend/platform/logger"
	"member_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the members bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the members module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "members"
}

// Service exposes the members service to sibling modules (lifecycle, broadcast).
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes the members repository for broadcast recipient queries.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts members routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/profile", m.handler.HandleGetProfile)
	ctx.Protected.PUT("/profile", m.handler.HandleUpdateProfile)

	ctx.Admin.GET("/users", m.handler.HandleListUsers)
	ctx.Admin.GET("/groups", m.handler.HandleListGroups)
	ctx.Admin.POST("/groups/:groupId/members", m.handler.HandleAddMembership)
	ctx.Admin.DELETE("/groups/:groupId/members/:userId", m.handler.HandleRemoveMembership)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

// Package consultations provides the consultation bounded context module:
// admin-managed consultations with bookable schedule slots and intake
// questions, plus member booking.
package consultations

import (
	"member_portal_backend/internal/consultations/handler"
	"member_portal_backend/internal/consultations/repository"
	"member_portal_backend/internal/consultations/service"
	apphttp "member_portal_backend/internal/http"
	"member_portal_backend/platform/logger"
	"member_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the consultations bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the consultations module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{handler: h}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "consultations"
}

// RegisterRoutes mounts consultation routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/consultations", m.handler.HandleList)
	ctx.Protected.GET("/consultations/:id", m.handler.HandleGet)
	ctx.Protected.POST("/consultations/:id/bookings", m.handler.HandleBook)
	ctx.Protected.DELETE("/consultations/:id/bookings", m.handler.HandleCancelBooking)

	ctx.Admin.GET("/consultations", m.handler.HandleAdminList)
	ctx.Admin.GET("/consultations/:id", m.handler.HandleGet)
	ctx.Admin.POST("/consultations", m.handler.HandleCreate)
	ctx.Admin.PUT("/consultations/:id", m.handler.HandleUpdate)
	ctx.Admin.DELETE("/consultations/:id", m.handler.HandleDelete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

// Package quotes provides the quotes bounded context module.
package quotes

import (
	"cotizador_backend/internal/adapters/storage"
	"cotizador_backend/internal/events"
	apphttp "cotizador_backend/internal/http"
	"cotizador_backend/internal/quotes/handler"
	"cotizador_backend/internal/quotes/repository"
	"cotizador_backend/internal/quotes/service"
	"cotizador_backend/platform/logger"
	"cotizador_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the quotes domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// Deps are the cross-module collaborators of the quotes module.
type Deps struct {
	Products  service.ProductReader
	Customers service.CustomerReader
	// Storage may be nil; documents are then rendered on every download.
	Storage  storage.StorageService
	EventBus events.Bus
}

// NewModule creates a new quotes module with all dependencies wired
func NewModule(pool *pgxpool.Pool, cfg service.Config, deps Deps, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, deps.Products, deps.Customers, deps.Storage, cfg, log)
	if deps.EventBus != nil {
		svc.SetEventBus(deps.EventBus)
	}

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public: the link is shared with customers over WhatsApp.
	ctx.V1.GET("/quotes/:id/pdf", m.handler.DownloadPDF)

	admin := ctx.Admin.Group("/quotes")
	admin.GET("", m.handler.List)
	admin.GET("/:id", m.handler.Get)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

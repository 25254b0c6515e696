// Package catalog provides the catalog bounded context module.
package catalog

import (
	"cotizador_backend/internal/catalog/handler"
	"cotizador_backend/internal/catalog/repository"
	"cotizador_backend/internal/catalog/service"
	apphttp "cotizador_backend/internal/http"
	"cotizador_backend/platform/logger"
	"cotizador_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the catalog module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	adminGroup := ctx.Admin.Group("/catalog")
	adminGroup.GET("/search", m.handler.Search)
	adminGroup.GET("/products/:sku", m.handler.GetBySKU)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

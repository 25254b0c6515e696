// Package conversation provides the conversation bounded context module:
// the engine, its store and the inbound pipeline.
package conversation

import (
	"cotizador_backend/internal/conversation/engine"
	"cotizador_backend/internal/conversation/handler"
	"cotizador_backend/internal/conversation/repository"
	"cotizador_backend/internal/conversation/service"
	"cotizador_backend/internal/events"
	apphttp "cotizador_backend/internal/http"
	"cotizador_backend/platform/lock"
	"cotizador_backend/platform/logger"
	"cotizador_backend/platform/metrics"
	"cotizador_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config groups the engine and pipeline tunables.
type Config struct {
	Engine   engine.Config
	Pipeline service.Config
}

// Deps are the collaborators owned by other modules. The language model
// agents may be nil, which leaves the engine on the keyword fallback.
type Deps struct {
	Auth       service.Authenticator
	Classifier engine.Classifier
	Extractor  engine.Extractor
	Responder  engine.Responder
	Catalog    engine.CatalogMatcher
	Quotes     engine.QuoteBuilder
	Locker     lock.Locker
	EventBus   events.Bus
	Metrics    metrics.Recorder
}

// Module is the conversation bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the repository, engine and pipeline.
func NewModule(pool *pgxpool.Pool, cfg Config, deps Deps, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)

	eng := engine.New(cfg.Engine, engine.Deps{
		Classifier: deps.Classifier,
		Extractor:  deps.Extractor,
		Responder:  deps.Responder,
		Catalog:    deps.Catalog,
		Store:      repo,
		Quotes:     deps.Quotes,
		Metrics:    deps.Metrics,
		Log:        log,
	})

	svc := service.New(repo, deps.Auth, eng, deps.Locker, cfg.Pipeline, log)
	if deps.EventBus != nil {
		svc.SetEventBus(deps.EventBus)
	}

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "conversation"
}

// Service returns the inbound pipeline for the channel modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the admin conversation views.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	admin := ctx.Admin.Group("/conversations")
	admin.GET("", m.handler.List)
	admin.GET("/:id", m.handler.Get)
	admin.GET("/:id/messages", m.handler.Messages)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

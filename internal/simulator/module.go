package simulator

import (
	"strings"

	apphttp "cotizador_backend/internal/http"
	"cotizador_backend/platform/validator"
)

// Module mounts the chat simulator.
type Module struct {
	handler *Handler
	public  bool
}

// NewModule creates the simulator module. Outside the development environment
// the simulator is only reachable by admins.
func NewModule(pipeline Pipeline, val *validator.Validator, env string) *Module {
	return &Module{
		handler: NewHandler(pipeline, val),
		public:  strings.EqualFold(strings.TrimSpace(env), "development"),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "simulator"
}

// RegisterRoutes mounts the simulator on /api/v1/chat in development and on
// /api/v1/admin/chat everywhere else.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	parent := ctx.Admin
	if m.public {
		parent = ctx.V1
	}
	chat := parent.Group("/chat")
	if ctx.WebhookRateLimiter != nil {
		chat.Use(ctx.WebhookRateLimiter.RateLimit())
	}
	chat.POST("/send", m.handler.Send)
	chat.GET("/conversations/:id/messages", m.handler.Messages)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

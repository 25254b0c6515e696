package whatsapp

import (
	apphttp "cotizador_backend/internal/http"
	"cotizador_backend/platform/config"
	"cotizador_backend/platform/logger"
)

// Module mounts the WhatsApp webhook.
type Module struct {
	handler   *Handler
	appSecret string
	log       *logger.Logger
}

// NewModule wires the webhook to the pipeline. sender may be a nil *Client.
func NewModule(cfg config.WhatsAppConfig, pipeline InboundHandler, sender Sender, log *logger.Logger) *Module {
	return &Module{
		handler:   NewHandler(pipeline, sender, cfg.GetWhatsAppVerifyToken(), log),
		appSecret: cfg.GetWhatsAppAppSecret(),
		log:       log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "whatsapp"
}

// RegisterRoutes mounts the webhook outside /api/v1, behind the IP rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Engine.Group("/webhook/whatsapp")
	if ctx.WebhookRateLimiter != nil {
		group.Use(ctx.WebhookRateLimiter.RateLimit())
	}
	group.GET("", m.handler.Verify)
	group.POST("", SignatureMiddleware(m.appSecret, m.log), m.handler.Receive)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

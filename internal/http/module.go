// Package http holds the contract between the router and the modules that
// mount routes on it.
package http

import (
	"cotizador_backend/platform/config"
	"cotizador_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context with HTTP routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is what a module receives when mounting its routes.
type RouterContext struct {
	// Engine is used for routes outside /api, such as Meta's webhook callback.
	Engine *gin.Engine
	// V1 is /api/v1 without authentication.
	V1 *gin.RouterGroup
	// Admin is /api/v1/admin behind a bearer token with the admin role.
	Admin  *gin.RouterGroup
	Config config.JWTConfig
	// WebhookRateLimiter throttles inbound webhook deliveries per client IP.
	WebhookRateLimiter *httpkit.IPRateLimiter
}

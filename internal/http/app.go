package http

import (
	"context"
	"net/http"

	"cotizador_backend/platform/config"
	"cotizador_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker is a dependency that can report whether it is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// main.go populates it and hands it to the router.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Readiness maps a dependency name ("database", "redis") to its probe.
	// /api/ready fails when any probe fails.
	Readiness map[string]HealthChecker
	// Metrics serves the Prometheus scrape endpoint. Nil disables /metrics.
	Metrics http.Handler
	Modules []Module
}

package router

import (
	"context"
	"net/http"
	"time"

	apphttp "cotizador_backend/internal/http"
	"cotizador_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	webhookRatePerSecond = 10
	webhookBurst         = 30
	readinessTimeout     = 2 * time.Second
)

// New builds the gin engine and lets every module mount its routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(app.Config.GetCORSAllowAll(), app.Config.GetCORSOrigins())))

	engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/api/ready", readinessHandler(app))
	if app.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(app.Metrics))
	}

	v1 := engine.Group("/api/v1")
	admin := v1.Group("/admin")
	admin.Use(httpkit.AuthRequired(app.Config), httpkit.RequireRole("admin"))

	ctx := &apphttp.RouterContext{
		Engine:             engine,
		V1:                 v1,
		Admin:              admin,
		Config:             app.Config,
		WebhookRateLimiter: httpkit.NewIPRateLimiter(rate.Limit(webhookRatePerSecond), webhookBurst, app.Logger),
	}

	for _, m := range app.Modules {
		m.RegisterRoutes(ctx)
		app.Logger.Info("module routes registered", "module", m.Name())
	}

	return engine
}

func readinessHandler(app *apphttp.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		checks := make(map[string]string, len(app.Readiness))
		status := http.StatusOK
		for name, probe := range app.Readiness {
			if err := probe.Ping(ctx); err != nil {
				app.Logger.ExternalFailure(name, err)
				checks[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}

		label := "ready"
		if status != http.StatusOK {
			label = "unavailable"
		}
		c.JSON(status, gin.H{"status": label, "checks": checks})
	}
}

func corsConfig(allowAll bool, origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: !allowAll,
		MaxAge:           12 * time.Hour,
	}
	if allowAll || len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

// Package router assembles the Gin engine from the registered modules.
package router

import (
	"net/http"
	"strings"
	"time"

	apphttp "member_portal_backend/internal/http"
	"member_portal_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// New builds the HTTP engine: global middleware, health endpoint, and one
// route-registration pass over the app's modules.
func New(app *apphttp.App) *gin.Engine {
	if !strings.EqualFold(app.Config.Env, "development") {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(corsMiddleware(app))

	limiter := httpkit.NewIPRateLimiter(rate.Limit(app.Config.RateLimitPerSecond), app.Config.RateLimitBurst, app.Logger)
	engine.Use(limiter.RateLimit())

	engine.GET("/api/health", func(c *gin.Context) {
		if app.Health != nil {
			if err := app.Health.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")

	auth := httpkit.AuthRequired(app.Config)
	protected := v1.Group("")
	protected.Use(auth)

	admin := v1.Group("/admin")
	admin.Use(auth, httpkit.AdminRequired())

	ctx := &apphttp.RouterContext{
		Engine:    engine,
		V1:        v1,
		Protected: protected,
		Admin:     admin,
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
		app.Logger.Debug("registered module routes", "module", module.Name())
	}

	return engine
}

func corsMiddleware(app *apphttp.App) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Lifecycle-Token"},
		AllowCredentials: !app.Config.CORSAllowAll,
		MaxAge:           12 * time.Hour,
	}
	if app.Config.CORSAllowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = app.Config.CORSOrigins
	}
	return cors.New(cfg)
}

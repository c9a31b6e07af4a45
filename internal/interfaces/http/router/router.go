// Package router wires middleware and route registration onto the gin
// engine.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/keyo/identities-backend/internal/interfaces/http/handler"
	"github.com/keyo/identities-backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"

	"github.com/keyo/identities-backend/internal/infrastructure/logger"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Config holds router construction options.
type Config struct {
	Logger           *zap.Logger
	CORSAllowOrigins []string
	StaticDir        string
}

// New builds a gin engine with the standard middleware chain and registers
// all route registrars under /api.
func New(cfg Config, registrars ...RouteRegistrar) *gin.Engine {
	handler.RegisterValidators()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(cfg.Logger))
	engine.Use(logger.Recovery(cfg.Logger))

	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.CORSAllowOrigins
	}
	engine.Use(middleware.CORSWithConfig(cors))
	engine.Use(middleware.BearerPassthrough())

	api := engine.Group("/api")
	for _, registrar := range registrars {
		registrar.RegisterRoutes(api)
	}

	// The widget's static assets, when bundled with the gateway.
	if cfg.StaticDir != "" {
		engine.Static("/widget", cfg.StaticDir)
	}

	return engine
}

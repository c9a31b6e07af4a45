package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	deviceapp "github.com/keyo/identities-backend/internal/application/device"
	identityapp "github.com/keyo/identities-backend/internal/application/identity"
	"github.com/keyo/identities-backend/internal/infrastructure/config"
	"github.com/keyo/identities-backend/internal/infrastructure/keyo"
	"github.com/keyo/identities-backend/internal/infrastructure/localstore"
	"github.com/keyo/identities-backend/internal/infrastructure/logger"
	"github.com/keyo/identities-backend/internal/interfaces/http/handler"
	"github.com/keyo/identities-backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting identities gateway",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("keyo_base_url", cfg.Keyo.BaseURL),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	keyoConfig := &keyo.Config{
		BaseURL:      cfg.Keyo.BaseURL,
		OrgAuthToken: cfg.Keyo.OrgAuthToken,
		OrgID:        cfg.Keyo.OrgID,
		Timeout:      cfg.Keyo.RequestTimeout,
	}
	tokens, err := keyo.NewTokenSource(keyoConfig, log)
	if err != nil {
		log.Fatal("Failed to create token source", zap.Error(err))
	}
	client, err := keyo.NewClient(keyoConfig, tokens, log)
	if err != nil {
		log.Fatal("Failed to create upstream client", zap.Error(err))
	}

	allowlist, err := cfg.Users.Allowlist()
	if err != nil {
		// Credentialed token requests fail closed until this is fixed.
		log.Warn("Operator allow-list unavailable", zap.Error(err))
	}

	stores := localstore.NewManager()
	devices := deviceapp.NewService(stores, log)
	identities := identityapp.NewIdentityService(client, stores, log)
	enrollment := identityapp.NewEnrollmentService(client, devices, identities, log)
	tokenService := identityapp.NewTokenService(allowlist, tokens, log)

	engine := router.New(router.Config{
		Logger:           log,
		CORSAllowOrigins: cfg.HTTP.CORSAllowOrigins,
		StaticDir:        cfg.App.StaticDir,
	},
		handler.NewSystemHandler(),
		handler.NewTokenHandler(tokenService),
		handler.NewIdentityHandler(identities, enrollment, client),
		handler.NewDeviceHandler(devices),
	)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

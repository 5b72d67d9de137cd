package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/almatour-auth/config"
	"github.com/oksasatya/almatour-auth/internal/container"
	repo "github.com/oksasatya/almatour-auth/internal/domain/repository"
	"github.com/oksasatya/almatour-auth/internal/infrastructure/migrations"
	pginfra "github.com/oksasatya/almatour-auth/internal/infrastructure/postgres"
	sqliteinfra "github.com/oksasatya/almatour-auth/internal/infrastructure/sqlite"
	"github.com/oksasatya/almatour-auth/internal/interface/middleware"
	"github.com/oksasatya/almatour-auth/internal/router"
	"github.com/oksasatya/almatour-auth/pkg/helpers"
	"github.com/oksasatya/almatour-auth/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	store, closeStore, err := openStore(context.Background(), cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open credential store")
	}
	defer closeStore()

	c := container.New(cfg, logger, store)

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	if origins := cfg.CORSOrigins(); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  origins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
			ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	reg := router.NewRegistry(r)
	if cfg.HTTPLogEnabled {
		// static assets stay out of the access log
		reg.Use(middleware.AccessLog(logger))
	}
	router.InitModules(reg, c)
	reg.RegisterAll()
	reg.ServeStatic(cfg.StaticDir)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: cfg.HTTPReadTimeout,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}
	go func() {
		logger.WithFields(logrus.Fields{
			"port":        cfg.Port,
			"driver":      cfg.DBDriver,
			"bcrypt_cost": c.Hasher.Cost(),
		}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	logger.Info("server exited properly")
}

// openStore migrates and opens the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repo.UserRepository, func(), error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		if err := migrations.Up(migrations.Postgres, cfg.PostgresDSN(), logger); err != nil {
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return pginfra.NewUserRepository(pool), pool.Close, nil
	default:
		store, err := sqliteinfra.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, closer(store, logger), nil
	}
}

func closer(c io.Closer, logger *logrus.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.WithError(err).Warn("close store")
		}
	}
}

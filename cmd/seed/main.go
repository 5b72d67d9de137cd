package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/almatour-auth/config"
	"github.com/oksasatya/almatour-auth/internal/application"
	"github.com/oksasatya/almatour-auth/internal/container"
	repo "github.com/oksasatya/almatour-auth/internal/domain/repository"
	"github.com/oksasatya/almatour-auth/internal/infrastructure/migrations"
	pginfra "github.com/oksasatya/almatour-auth/internal/infrastructure/postgres"
	sqliteinfra "github.com/oksasatya/almatour-auth/internal/infrastructure/sqlite"
	"github.com/oksasatya/almatour-auth/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var store repo.UserRepository
	switch cfg.DBDriver {
	case config.DriverPostgres:
		if err := migrations.Up(migrations.Postgres, cfg.PostgresDSN(), logger); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), 1, 0, time.Minute)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()
		store = pginfra.NewUserRepository(pool)
	default:
		s, err := sqliteinfra.Open(cfg.SQLitePath, logger)
		if err != nil {
			log.Fatalf("failed to open sqlite: %v", err)
		}
		defer func() { _ = s.Close() }()
		store = s
	}

	c := container.New(cfg, logger, store)
	if err := seed(ctx, c.Auth, cfg.SeedUsername, cfg.SeedPassword, os.Stdout); err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
}

type registrar interface {
	Register(ctx context.Context, username, password string) error
}

// seed registers one account. An existing username is reported, not failed.
func seed(ctx context.Context, svc registrar, username, password string, out io.Writer) error {
	err := svc.Register(ctx, username, password)
	switch {
	case errors.Is(err, application.ErrUsernameTaken):
		fmt.Fprintf(out, "user %q already exists, nothing to do\n", username)
		return nil
	case err != nil:
		return err
	}
	fmt.Fprintf(out, "seeded user: username=%s\n", username)
	return nil
}

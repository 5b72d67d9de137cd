package container

import (
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/almatour-auth/config"
	"github.com/oksasatya/almatour-auth/internal/application"
	repo "github.com/oksasatya/almatour-auth/internal/domain/repository"
	"github.com/oksasatya/almatour-auth/pkg/helpers"
)

// Container holds the components constructed in main and handed to the router.
// Nothing here is global; each binary builds its own.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	Repo   repo.UserRepository
	Hasher *helpers.PasswordHasher
	Auth   *application.AuthService
}

// New wires the auth service from an opened store.
func New(cfg *config.Config, logger *logrus.Logger, store repo.UserRepository) *Container {
	hasher := helpers.NewPasswordHasher(cfg.BcryptCost, cfg.HashConcurrency)
	return &Container{
		Config: cfg,
		Logger: logger,
		Repo:   store,
		Hasher: hasher,
		Auth:   application.NewAuthService(store, hasher, logger),
	}
}

package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	repo "github.com/oksasatya/almatour-auth/internal/domain/repository"
	"github.com/oksasatya/almatour-auth/pkg/helpers"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInternal           = errors.New("internal error")
)

// Hasher is the password primitive the service depends on.
type Hasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	Compare(ctx context.Context, hash, plain string) (bool, error)
	CompareDummy(ctx context.Context, plain string)
}

// AuthService implements registration and credential verification.
// A nil error from Register means Registered, from Login means Authenticated.
type AuthService struct {
	Repo   repo.UserRepository
	Hasher Hasher
	Logger *logrus.Logger
}

func NewAuthService(repo repo.UserRepository, hasher Hasher, logger *logrus.Logger) *AuthService {
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	return &AuthService{Repo: repo, Hasher: hasher, Logger: logger}
}

// Register stores a new account. Presence of both fields is the only policy.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	if username == "" || password == "" || len(password) > helpers.MaxPasswordBytes {
		return ErrInvalidInput
	}

	hash, err := s.Hasher.Hash(ctx, password)
	if err != nil {
		s.Logger.WithError(err).WithField("username", username).Error("hash password failed")
		return fmt.Errorf("%w: hash password: %w", ErrInternal, err)
	}

	id, err := s.Repo.Create(ctx, username, hash)
	switch {
	case errors.Is(err, repo.ErrDuplicateUsername):
		return ErrUsernameTaken
	case err != nil:
		s.Logger.WithError(err).WithField("username", username).Error("create user failed")
		return fmt.Errorf("%w: create user: %w", ErrInternal, err)
	}

	s.Logger.WithFields(logrus.Fields{"user_id": id, "username": username}).Info("user registered")
	return nil
}

// Login verifies credentials. Unknown users and wrong passwords both yield
// ErrInvalidCredentials, and both pay for one bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" || len(password) > helpers.MaxPasswordBytes {
		s.Hasher.CompareDummy(ctx, password)
		return ErrInvalidCredentials
	}

	u, err := s.Repo.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		s.Hasher.CompareDummy(ctx, password)
		s.Logger.WithField("username", username).Debug("login for unknown user")
		return ErrInvalidCredentials
	case err != nil:
		s.Logger.WithError(err).WithField("username", username).Error("lookup user failed")
		return fmt.Errorf("%w: lookup user: %w", ErrInternal, err)
	}

	ok, err := s.Hasher.Compare(ctx, u.PasswordHash, password)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: verify password: %w", ErrInternal, ctxErr)
		}
		// The stored row is unusable; report it as a store fault.
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("stored password hash is unreadable")
		return fmt.Errorf("%w: verify password: %w: %w", ErrInternal, repo.ErrStoreUnavailable, err)
	}
	if !ok {
		s.Logger.WithField("user_id", u.ID).Debug("login with wrong password")
		return ErrInvalidCredentials
	}

	s.Logger.WithField("user_id", u.ID).Info("user authenticated")
	return nil
}

// Healthy reports whether the credential store answers.
func (s *AuthService) Healthy(ctx context.Context) error {
	return s.Repo.Ping(ctx)
}

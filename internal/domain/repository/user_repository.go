package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/almatour-auth/internal/domain/entity"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrStoreUnavailable  = errors.New("credential store unavailable")
)

// UserRepository is the credential store contract.
// Create relies on the engine's unique constraint, so two concurrent calls with the
// same username produce exactly one success and one ErrDuplicateUsername.
// Any other failure satisfies errors.Is(err, ErrStoreUnavailable).
type UserRepository interface {
	Create(ctx context.Context, username, passwordHash string) (int64, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	Ping(ctx context.Context) error
}

package application_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/almatour-auth/internal/application"
	"github.com/oksasatya/almatour-auth/internal/domain/entity"
	"github.com/oksasatya/almatour-auth/internal/domain/repository"
	"github.com/oksasatya/almatour-auth/pkg/helpers"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) Create(ctx context.Context, username, passwordHash string) (int64, error) {
	args := m.Called(username, passwordHash)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	args := m.Called(username)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *MockRepo) Ping(ctx context.Context) error {
	return m.Called().Error(0)
}

type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) Hash(ctx context.Context, plain string) (string, error) {
	args := m.Called(plain)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) Compare(ctx context.Context, hash, plain string) (bool, error) {
	args := m.Called(hash, plain)
	return args.Bool(0), args.Error(1)
}

func (m *MockHasher) CompareDummy(ctx context.Context, plain string) {
	m.Called(plain)
}

// memRepo is an in-process credential store with the same uniqueness contract.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*entity.User
}

func newMemRepo() *memRepo { return &memRepo{users: map[string]*entity.User{}} }

func (r *memRepo) Create(_ context.Context, username, passwordHash string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[username]; ok {
		return 0, repository.ErrDuplicateUsername
	}
	r.nextID++
	r.users[username] = &entity.User{ID: r.nextID, Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}
	return r.nextID, nil
}

func (r *memRepo) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) Ping(context.Context) error { return nil }

func newRealService(t *testing.T) (*application.AuthService, *memRepo) {
	t.Helper()
	store := newMemRepo()
	return application.NewAuthService(store, helpers.NewPasswordHasher(bcrypt.MinCost, 4), nil), store
}

var storeFault = fmt.Errorf("insert user: %w: %w", repository.ErrStoreUnavailable, errors.New("db down"))

func TestRegister(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		username  string
		password  string
		mockSetup func(r *MockRepo, h *MockHasher)
		wantErr   error
		wantStore bool
	}{
		{
			name:     "Successful registration",
			username: "alice",
			password: "secret1",
			mockSetup: func(r *MockRepo, h *MockHasher) {
				h.On("Hash", "secret1").Return("hashed", nil)
				r.On("Create", "alice", "hashed").Return(int64(1), nil)
			},
		},
		{name: "Empty username", username: "", password: "x", mockSetup: func(*MockRepo, *MockHasher) {}, wantErr: application.ErrInvalidInput},
		{name: "Empty password", username: "u", password: "", mockSetup: func(*MockRepo, *MockHasher) {}, wantErr: application.ErrInvalidInput},
		{name: "Password over bcrypt limit", username: "u", password: strings.Repeat("p", 73), mockSetup: func(*MockRepo, *MockHasher) {}, wantErr: application.ErrInvalidInput},
		{
			name:     "Username taken",
			username: "alice",
			password: "other",
			mockSetup: func(r *MockRepo, h *MockHasher) {
				h.On("Hash", "other").Return("hashed2", nil)
				r.On("Create", "alice", "hashed2").Return(int64(0), repository.ErrDuplicateUsername)
			},
			wantErr: application.ErrUsernameTaken,
		},
		{
			name:     "Store unavailable",
			username: "alice",
			password: "secret1",
			mockSetup: func(r *MockRepo, h *MockHasher) {
				h.On("Hash", "secret1").Return("hashed", nil)
				r.On("Create", "alice", "hashed").Return(int64(0), storeFault)
			},
			wantErr:   application.ErrInternal,
			wantStore: true,
		},
		{
			name:     "Hashing fails",
			username: "alice",
			password: "secret1",
			mockSetup: func(r *MockRepo, h *MockHasher) {
				h.On("Hash", "secret1").Return("", errors.New("entropy exhausted"))
			},
			wantErr: application.ErrInternal,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r, h := &MockRepo{}, &MockHasher{}
			tc.mockSetup(r, h)
			svc := application.NewAuthService(r, h, nil)

			err := svc.Register(context.Background(), tc.username, tc.password)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.wantStore, errors.Is(err, repository.ErrStoreUnavailable))
			r.AssertExpectations(t)
			h.AssertExpectations(t)
		})
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	alice := &entity.User{ID: 1, Username: "alice", PasswordHash: "stored"}

	testCases := []struct {
		name      string
		username  string
		password  string
		mockSetup func(r *MockRepo, h *MockHasher)
		wantErr   error
	}{
		{
			name:     "Authenticated",
			username: "alice",
			password: "secret1",
			mockSetup: func(r *MockRepo, h *MockHasher) {
				r.On("GetByUsername", "alice").Return(alice, nil)
				h.On("Compare", "stored", "secret1").Return(true, nil)
			},
		},
		{
			name:     "Wrong password",
			username: "alice",
			password: "wrong",
			mockSetup: func(r *MockRepo, h *MockHasher) {
				r.On("GetByUsername", "alice").Return(alice, nil)
				h.On("Compare", "stored", "wrong").Return(false, nil)
			},
			wantErr: application.ErrInvalidCredentials,
		},
		{
			name:     "Unknown user pays a dummy comparison",
			username: "ghost",
			password: "secret1",
			mockSetup: func(r *MockRepo, h *MockHasher) {
				r.On("GetByUsername", "ghost").Return(nil, repository.ErrNotFound)
				h.On("CompareDummy", "secret1").Return()
			},
			wantErr: application.ErrInvalidCredentials,
		},
		{
			name:     "Empty fields",
			username: "",
			password: "",
			mockSetup: func(r *MockRepo, h *MockHasher) {
				h.On("CompareDummy", "").Return()
			},
			wantErr: application.ErrInvalidCredentials,
		},
		{
			name:     "Password over bcrypt limit pays a dummy comparison",
			username: "alice",
			password: strings.Repeat("a", 80),
			mockSetup: func(r *MockRepo, h *MockHasher) {
				h.On("CompareDummy", strings.Repeat("a", 80)).Return()
			},
			wantErr: application.ErrInvalidCredentials,
		},
		{
			name:     "Store unavailable",
			username: "alice",
			password: "secret1",
			mockSetup: func(r *MockRepo, h *MockHasher) {
				r.On("GetByUsername", "alice").Return(nil, storeFault)
			},
			wantErr: repository.ErrStoreUnavailable,
		},
		{
			name:     "Corrupt stored hash",
			username: "alice",
			password: "secret1",
			mockSetup: func(r *MockRepo, h *MockHasher) {
				r.On("GetByUsername", "alice").Return(alice, nil)
				h.On("Compare", "stored", "secret1").Return(false, bcrypt.ErrHashTooShort)
			},
			wantErr: repository.ErrStoreUnavailable,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r, h := &MockRepo{}, &MockHasher{}
			tc.mockSetup(r, h)
			svc := application.NewAuthService(r, h, nil)

			err := svc.Login(context.Background(), tc.username, tc.password)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			if errors.Is(tc.wantErr, repository.ErrStoreUnavailable) {
				assert.ErrorIs(t, err, application.ErrInternal)
			}
			r.AssertExpectations(t)
			h.AssertExpectations(t)
		})
	}
}

func TestRegisterThenLogin_RoundTrip(t *testing.T) {
	t.Parallel()
	svc, _ := newRealService(t)
	ctx := context.Background()

	pairs := [][2]string{{"alice", "secret1"}, {"bob", "p"}, {"Ünïcødé", "пароль"}, {"with space", " "}}
	for _, p := range pairs {
		require.NoError(t, svc.Register(ctx, p[0], p[1]))
	}
	for _, p := range pairs {
		assert.NoError(t, svc.Login(ctx, p[0], p[1]), p[0])
	}
}

func TestRegister_DuplicateKeepsStoredHash(t *testing.T) {
	t.Parallel()
	svc, store := newRealService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice", "secret1"))
	before, err := store.GetByUsername(ctx, "alice")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Register(ctx, "alice", "other"), application.ErrUsernameTaken)

	after, err := store.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
	assert.NoError(t, svc.Login(ctx, "alice", "secret1"))
	assert.ErrorIs(t, svc.Login(ctx, "alice", "other"), application.ErrInvalidCredentials)
}

func TestLogin_MaxLengthPasswordPlusSuffix(t *testing.T) {
	t.Parallel()
	svc, _ := newRealService(t)
	ctx := context.Background()
	exact := strings.Repeat("a", helpers.MaxPasswordBytes)

	require.NoError(t, svc.Register(ctx, "alice", exact))

	assert.NoError(t, svc.Login(ctx, "alice", exact))
	assert.ErrorIs(t, svc.Login(ctx, "alice", exact+"EXTRA-NOT-THE-PASSWORD"), application.ErrInvalidCredentials)
}

func TestRegister_SamePasswordDifferentHashes(t *testing.T) {
	t.Parallel()
	svc, store := newRealService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "u1", "shared"))
	require.NoError(t, svc.Register(ctx, "u2", "shared"))

	u1, _ := store.GetByUsername(ctx, "u1")
	u2, _ := store.GetByUsername(ctx, "u2")
	assert.NotEqual(t, u1.PasswordHash, u2.PasswordHash)
	assert.NotEqual(t, "shared", u1.PasswordHash)

	assert.NoError(t, svc.Login(ctx, "u1", "shared"))
	assert.NoError(t, svc.Login(ctx, "u2", "shared"))
}

func TestLogin_UnknownAndWrongPasswordAreIndistinguishable(t *testing.T) {
	t.Parallel()
	svc, _ := newRealService(t)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, "alice", "secret1"))

	unknown := svc.Login(ctx, "nobody", "secret1")
	wrong := svc.Login(ctx, "alice", "wrong")

	assert.Equal(t, unknown, wrong)
	assert.ErrorIs(t, unknown, application.ErrInvalidCredentials)
}

func TestHealthy(t *testing.T) {
	t.Parallel()
	r := &MockRepo{}
	r.On("Ping").Return(nil)

	assert.NoError(t, application.NewAuthService(r, &MockHasher{}, nil).Healthy(context.Background()))
	r.AssertExpectations(t)
}

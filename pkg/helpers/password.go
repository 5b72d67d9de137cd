package helpers

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// PasswordHasher hashes and verifies passwords with bcrypt.
// At most `concurrency` bcrypt operations run at once; waiting callers give up when their context ends.
type PasswordHasher struct {
	cost int
	sem  *semaphore.Weighted

	dummyOnce sync.Once
	dummy     []byte
}

// NewPasswordHasher returns a hasher with the given bcrypt cost.
// concurrency <= 0 means GOMAXPROCS.
func NewPasswordHasher(cost, concurrency int) *PasswordHasher {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &PasswordHasher{cost: cost, sem: semaphore.NewWeighted(int64(concurrency))}
}

func (h *PasswordHasher) Cost() int { return h.cost }

// Hash returns a salted bcrypt hash of plain.
func (h *PasswordHasher) Hash(ctx context.Context, plain string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare reports whether plain matches hash. A mismatch is (false, nil);
// an error means the hash could not be checked at all.
// Input over MaxPasswordBytes never matches, even though bcrypt itself only reads
// the first 72 bytes. The comparison still runs so the cost is the same.
func (h *PasswordHasher) Compare(ctx context.Context, hash, plain string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	tooLong := len(plain) > MaxPasswordBytes
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil && tooLong:
		return false, nil
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, err
	}
}

// CompareDummy spends the same work as Compare against a throwaway hash.
// Used when there is no stored hash so response time does not reveal it.
func (h *PasswordHasher) CompareDummy(ctx context.Context, plain string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("almatour:no-such-user"), h.cost)
	})
	if h.dummy == nil {
		return
	}
	_, _ = h.Compare(ctx, string(h.dummy), plain)
}

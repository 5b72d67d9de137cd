package entity

import (
	"time"
)

// User is the only aggregate of the auth domain.
// PasswordHash holds the bcrypt output and must never leave the service layer.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

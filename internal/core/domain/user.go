package domain

import (
	"strings"
	"time"
)

// User models an account holder. PasswordHash and PasswordSalt never leave
// the core: they are excluded from JSON and from every log line.
type User struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	Name              string    `json:"name,omitempty"`
	PasswordHash      string    `json:"-"`
	PasswordSalt      string    `json:"-"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	PasswordChangedAt time.Time `json:"-"`
}

// NormalizeEmail returns the identity key used for every email lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

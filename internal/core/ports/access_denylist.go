package ports

import (
	"context"
	"time"
)

// AccessDenylist remembers access-token ids revoked before their natural
// expiry (explicit logout).
type AccessDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

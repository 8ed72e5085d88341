package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "access:revoked:"

// AccessDenylist records revoked access-token ids in Redis. Keys expire with
// the token, so the set never outgrows the live tokens.
// Key format: access:revoked:<jti>
type AccessDenylist struct {
	client redis.Cmdable
}

// NewAccessDenylist wraps the given Redis client.
func NewAccessDenylist(client redis.Cmdable) *AccessDenylist {
	return &AccessDenylist{client: client}
}

// Revoke marks tokenID revoked for ttl.
func (d *AccessDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if err := d.client.Set(ctx, d.key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("denylist revoke: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID was revoked and has not yet expired.
func (d *AccessDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("denylist check: %w", err)
	}
	return n > 0, nil
}

func (d *AccessDenylist) key(tokenID string) string {
	return denylistPrefix + tokenID
}

package ports

import (
	"context"
	"time"

	"github.com/adamchat/account-service/internal/core/domain"
)

// RefreshTokenRepository stores refresh tokens by digest. Rows past
// expires_at are reaped by the store (TTL index).
type RefreshTokenRepository interface {
	Insert(ctx context.Context, token *domain.RefreshToken) error
	// ConsumeIfValid atomically finds and deletes an unexpired token. Of N
	// concurrent callers with the same digest exactly one gets the row; the
	// others get domain.ErrTokenInvalid.
	ConsumeIfValid(ctx context.Context, tokenHash string, now time.Time) (*domain.RefreshToken, error)
	// Delete removes a single token owned by userID and reports whether it
	// existed. A token belonging to another user is left in place.
	Delete(ctx context.Context, tokenHash, userID string) (bool, error)
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}

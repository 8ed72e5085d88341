package ports

import (
	"context"
	"time"

	"github.com/adamchat/account-service/internal/core/domain"
)

// ResetCodeRepository stores password-reset codes. Rows past expires_at are
// reaped by the store (TTL index).
type ResetCodeRepository interface {
	DeleteAllForEmail(ctx context.Context, email string) error
	Insert(ctx context.Context, code *domain.ResetCode) error
	// FindActive returns the newest row for email when it carries code and is
	// unused and unexpired; otherwise domain.ErrCodeInvalidOrExpired. Older
	// rows never match, even if a concurrent Generate left them behind.
	FindActive(ctx context.Context, email, code string, now time.Time) (*domain.ResetCode, error)
	// MarkUsed flips used=true only on the row FindActive would return, so
	// two concurrent redemptions cannot both succeed. Returns
	// domain.ErrCodeInvalidOrExpired when nothing matched.
	MarkUsed(ctx context.Context, email, code string, now time.Time) error
}

package ports

import (
	"context"
	"time"

	"github.com/adamchat/account-service/internal/core/domain"
)

// UserRepository persists accounts. Implementations must enforce unique email
// and username at the storage layer and report collisions as
// domain.ErrUserExists.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// UpdatePassword replaces hash and salt and stamps both updated_at and
	// password_changed_at with changedAt in a single write.
	UpdatePassword(ctx context.Context, id, hash, salt string, changedAt time.Time) error
	// ReplaceHash swaps the stored digest for an equivalent one (KDF upgrade)
	// without touching password_changed_at, so live sessions survive.
	ReplaceHash(ctx context.Context, id, hash, salt string) error
}

package ports

import (
	"context"

	"github.com/adamchat/account-service/internal/core/domain"
)

// PasswordHasher derives and checks salted password digests.
type PasswordHasher interface {
	NewSalt() (string, error)
	Hash(password, salt string) (string, error)
	Verify(password, salt, expectedHash string) bool
	NeedsRehash(hash string) bool
}

// TokenVerifier validates access tokens presented by clients.
type TokenVerifier interface {
	VerifyAccess(ctx context.Context, accessToken string) (*domain.AccessClaims, error)
}

// TokenIssuer mints, rotates and revokes sessions.
type TokenIssuer interface {
	TokenVerifier
	IssueSession(ctx context.Context, user *domain.User) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Revoke(ctx context.Context, refreshToken, userID string) error
	RevokeAccess(ctx context.Context, claims *domain.AccessClaims) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// SessionInvalidator ends every session of a user.
type SessionInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// ResetCodeManager drives the forgot-password flow.
type ResetCodeManager interface {
	Generate(ctx context.Context, email string) error
	Validate(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

// RegisterInput carries the fields accepted at sign-up.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Name     string
}

// AuthStatus describes the running authentication backend.
type AuthStatus struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	AuthType string `json:"auth_type"`
}

// AuthService is the account facade the HTTP layer talks to.
type AuthService interface {
	ResetCodeManager
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, identifier, password string) (*domain.TokenPair, *domain.User, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Logout(ctx context.Context, refreshToken string, claims *domain.AccessClaims) error
	LogoutAll(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	Status() AuthStatus
}

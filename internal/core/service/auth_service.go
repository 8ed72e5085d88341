package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/adamchat/account-service/internal/core/domain"
	"github.com/adamchat/account-service/internal/core/ports"
)

// dummyPassword is verified against when a login names an unknown account,
// so both failure paths cost one key derivation.
const dummyPassword = "account-service/timing-equaliser"

var _ ports.AuthService = (*AuthService)(nil)

// AuthService implements registration, login and the session operations on
// top of the credential components.
type AuthService struct {
	users    ports.UserRepository
	hasher   ports.PasswordHasher
	issuer   ports.TokenIssuer
	sessions ports.SessionInvalidator
	resets   ports.ResetCodeManager
	now      Clock
	log      zerolog.Logger

	dummySalt string
	dummyHash string
}

func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	issuer ports.TokenIssuer,
	sessions ports.SessionInvalidator,
	resets ports.ResetCodeManager,
	log zerolog.Logger,
	opts ...Option,
) (*AuthService, error) {
	salt, err := hasher.NewSalt()
	if err != nil {
		return nil, err
	}
	hash, err := hasher.Hash(dummyPassword, salt)
	if err != nil {
		return nil, err
	}

	s := applyOptions(opts)
	return &AuthService{
		users:     users,
		hasher:    hasher,
		issuer:    issuer,
		sessions:  sessions,
		resets:    resets,
		now:       s.clock,
		log:       log,
		dummySalt: salt,
		dummyHash: hash,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := domain.NormalizeEmail(in.Email)
	if username == "" || email == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if strings.Contains(username, "@") {
		return nil, domain.ErrInvalidUsername
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	salt, err := s.hasher.NewSalt()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(in.Password, salt)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = username
	}

	now := s.now()
	user := &domain.User{
		Username:          username,
		Email:             email,
		Name:              name,
		PasswordHash:      hash,
		PasswordSalt:      salt,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
		PasswordChangedAt: now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if !errors.Is(err, domain.ErrUserExists) {
			s.log.Error().Err(err).Str("email", email).Msg("failed to create user")
		}
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return created, nil
}

// Login accepts a username or an email. An unknown account and a wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*domain.TokenPair, *domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	user, err := s.lookup(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(password, s.dummySalt, s.dummyHash)
			return nil, nil, domain.ErrInvalidCredentials
		}
		s.log.Error().Err(err).Msg("login: user lookup failed")
		return nil, nil, err
	}

	if !s.hasher.Verify(password, user.PasswordSalt, user.PasswordHash) {
		return nil, nil, domain.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, nil, domain.ErrAccountDisabled
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user, password)
	}

	pair, err := s.issuer.IssueSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("login")
	return pair, user, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	return s.issuer.Refresh(ctx, refreshToken)
}

// Logout drops the caller's refresh token and deny-lists the access token
// that accompanied the request. Without claims nothing is revoked.
func (s *AuthService) Logout(ctx context.Context, refreshToken string, claims *domain.AccessClaims) error {
	if claims == nil {
		return nil
	}
	if err := s.issuer.Revoke(ctx, refreshToken, claims.UserID); err != nil {
		return err
	}
	return s.issuer.RevokeAccess(ctx, claims)
}

func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	return s.sessions.Invalidate(ctx, userID)
}

// ChangePassword requires the current password and ends every session,
// including the caller's.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(currentPassword, user.PasswordSalt, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	salt, err := s.hasher.NewSalt()
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword, salt)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, salt, s.now()); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to change password")
		return err
	}

	return s.sessions.Invalidate(ctx, user.ID)
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) Generate(ctx context.Context, email string) error {
	return s.resets.Generate(ctx, email)
}

func (s *AuthService) Validate(ctx context.Context, email, code string) error {
	return s.resets.Validate(ctx, email, code)
}

func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	return s.resets.ResetPassword(ctx, email, code, newPassword)
}

func (s *AuthService) Status() ports.AuthStatus {
	return ports.AuthStatus{
		Status:   "ok",
		Message:  "authentication service operational",
		AuthType: "jwt",
	}
}

func (s *AuthService) lookup(ctx context.Context, identifier string) (*domain.User, error) {
	if strings.Contains(identifier, "@") {
		return s.users.FindByEmail(ctx, domain.NormalizeEmail(identifier))
	}
	return s.users.FindByUsername(ctx, identifier)
}

// upgradeHash re-derives the digest with the current scheme. Failure is
// logged and otherwise ignored: the old digest still verifies.
func (s *AuthService) upgradeHash(ctx context.Context, user *domain.User, password string) {
	salt, err := s.hasher.NewSalt()
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("rehash skipped")
		return
	}
	hash, err := s.hasher.Hash(password, salt)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("rehash skipped")
		return
	}
	if err := s.users.ReplaceHash(ctx, user.ID, hash, salt); err != nil {
		s.log.Warn().Err(fmt.Errorf("replace hash: %w", err)).Str("user_id", user.ID).Msg("rehash failed")
		return
	}
	user.PasswordHash, user.PasswordSalt = hash, salt
	s.log.Info().Str("user_id", user.ID).Msg("password hash upgraded")
}

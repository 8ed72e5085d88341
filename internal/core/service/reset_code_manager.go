package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"github.com/adamchat/account-service/internal/core/domain"
	"github.com/adamchat/account-service/internal/core/ports"
)

var _ ports.ResetCodeManager = (*ResetCodeService)(nil)

// ResetCodeService implements the forgot-password flow. Per email the code
// lineage moves NONE -> ISSUED -> (VALIDATED | EXPIRED) -> CONSUMED; issuing
// a new code deletes every earlier one.
type ResetCodeService struct {
	users    ports.UserRepository
	codes    ports.ResetCodeRepository
	hasher   ports.PasswordHasher
	sessions ports.SessionInvalidator
	notifier ports.Notifier
	ttl      time.Duration
	now      Clock
	log      zerolog.Logger
}

// NewResetCodeService wires a ResetCodeService. A non-positive ttl falls back
// to domain.ResetCodeTTL.
func NewResetCodeService(
	users ports.UserRepository,
	codes ports.ResetCodeRepository,
	hasher ports.PasswordHasher,
	sessions ports.SessionInvalidator,
	notifier ports.Notifier,
	ttl time.Duration,
	log zerolog.Logger,
	opts ...Option,
) *ResetCodeService {
	if ttl <= 0 {
		ttl = domain.ResetCodeTTL
	}
	s := applyOptions(opts)
	return &ResetCodeService{
		users:    users,
		codes:    codes,
		hasher:   hasher,
		sessions: sessions,
		notifier: notifier,
		ttl:      ttl,
		now:      s.clock,
		log:      log,
	}
}

// Generate issues a new code for email and hands it to the notifier.
// Returns domain.ErrUserNotFound when no account uses email; the HTTP layer
// decides whether to reveal that.
func (s *ResetCodeService) Generate(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.ErrUserNotFound
	}

	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.Error().Err(err).Str("email", email).Msg("reset: user lookup failed")
		}
		return err
	}

	// 1. Supersede every earlier code for this email.
	if err := s.codes.DeleteAllForEmail(ctx, email); err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("reset: failed to clear previous codes")
		return err
	}

	code, err := generateResetCode()
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}

	// 2. Persist the new code.
	now := s.now()
	rc := &domain.ResetCode{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.codes.Insert(ctx, rc); err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("reset: failed to store code")
		return err
	}

	// 3. Deliver out of band.
	if err := s.notifier.SendResetCode(ctx, email, code); err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("reset: code delivery failed")
		if errors.Is(err, domain.ErrDeliveryFailed) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
	}

	s.log.Info().Str("email", email).Time("expires_at", rc.ExpiresAt).Msg("reset code issued")
	return nil
}

// Validate is a read-only probe: nil iff an unused, unexpired code matches.
func (s *ResetCodeService) Validate(ctx context.Context, email, code string) error {
	email = domain.NormalizeEmail(email)
	if !wellFormedCode(code) || email == "" {
		return domain.ErrCodeInvalidOrExpired
	}

	if _, err := s.codes.FindActive(ctx, email, code, s.now()); err != nil {
		if !errors.Is(err, domain.ErrCodeInvalidOrExpired) {
			s.log.Error().Err(err).Str("email", email).Msg("reset: code lookup failed")
		}
		return err
	}
	return nil
}

// ResetPassword redeems code and sets newPassword. The code is claimed with
// a conditional write before the password changes, so a code can never be
// redeemed twice; every session of the user is then revoked.
func (s *ResetCodeService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = domain.NormalizeEmail(email)

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	// 1. Code must still be active.
	if err := s.Validate(ctx, email, code); err != nil {
		return err
	}

	// 2. Account must still exist.
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.Error().Err(err).Str("email", email).Msg("reset: user lookup failed")
		}
		return err
	}

	// 3. Claim the code. Losing a race here reads as an invalid code.
	now := s.now()
	if err := s.codes.MarkUsed(ctx, email, code, now); err != nil {
		if !errors.Is(err, domain.ErrCodeInvalidOrExpired) {
			s.log.Error().Err(err).Str("email", email).Msg("reset: failed to consume code")
		}
		return err
	}

	// 4. Store the new credentials.
	salt, err := s.hasher.NewSalt()
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	hash, err := s.hasher.Hash(newPassword, salt)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, salt, now); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("reset: failed to update password")
		return err
	}

	// 5. End every session. Refresh tokens minted before now are already
	// rejected by the password_changed_at check should this step fail.
	if err := s.sessions.Invalidate(ctx, user.ID); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("reset: password changed but sessions not revoked")
		return err
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset")
	return nil
}

// generateResetCode draws ResetCodeLength uniform decimal digits from
// crypto/rand.
func generateResetCode() (string, error) {
	ten := big.NewInt(10)
	b := make([]byte, domain.ResetCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b[i] = byte('0' + n.Int64())
	}
	return string(b), nil
}

func wellFormedCode(code string) bool {
	if len(code) != domain.ResetCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

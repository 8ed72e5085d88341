package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/adamchat/account-service/internal/core/domain"
	"github.com/adamchat/account-service/internal/core/ports"
)

const (
	refreshTokenBytes = 32
	accessTokenType   = "access"
)

// TokenConfig holds the signing key and lifetimes of issued tokens.
type TokenConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type accessTokenClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

var _ ports.TokenIssuer = (*TokenIssuer)(nil)

// TokenIssuer mints HS256 access tokens and opaque refresh tokens. Refresh
// tokens are single-use: every refresh consumes the presented token.
type TokenIssuer struct {
	users    ports.UserRepository
	tokens   ports.RefreshTokenRepository
	denylist ports.AccessDenylist
	cfg      TokenConfig
	now      Clock
	log      zerolog.Logger
}

// NewTokenIssuer wires a TokenIssuer. denylist may be nil, in which case
// access tokens stay valid until they expire.
func NewTokenIssuer(
	users ports.UserRepository,
	tokens ports.RefreshTokenRepository,
	denylist ports.AccessDenylist,
	cfg TokenConfig,
	log zerolog.Logger,
	opts ...Option,
) *TokenIssuer {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	s := applyOptions(opts)
	return &TokenIssuer{
		users:    users,
		tokens:   tokens,
		denylist: denylist,
		cfg:      cfg,
		now:      s.clock,
		log:      log,
	}
}

// IssueSession creates a fresh access/refresh pair for user.
func (i *TokenIssuer) IssueSession(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	now := i.now()

	access, accessExp, err := i.signAccess(user, now)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	raw, err := newRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	rt := &domain.RefreshToken{
		TokenHash: hashToken(raw),
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(i.cfg.RefreshTTL),
	}
	if err := i.tokens.Insert(ctx, rt); err != nil {
		i.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to store refresh token")
		return nil, fmt.Errorf("issue session: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     raw,
		TokenType:        domain.TokenTypeBearer,
		ExpiresIn:        int64(i.cfg.AccessTTL / time.Second),
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: rt.ExpiresAt,
	}, nil
}

// Refresh consumes refreshToken and returns a new pair. A token that is
// unknown, expired, already used or older than the owner's last password
// change yields domain.ErrTokenInvalid.
func (i *TokenIssuer) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, domain.ErrTokenInvalid
	}
	now := i.now()

	rt, err := i.tokens.ConsumeIfValid(ctx, hashToken(refreshToken), now)
	if err != nil {
		if !errors.Is(err, domain.ErrTokenInvalid) {
			i.log.Error().Err(err).Msg("refresh token lookup failed")
		}
		return nil, err
	}

	user, err := i.users.FindByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		i.log.Error().Err(err).Str("user_id", rt.UserID).Msg("refresh: user lookup failed")
		return nil, err
	}
	if !user.Active {
		return nil, domain.ErrAccountDisabled
	}
	if !rt.ValidFor(user, now) {
		i.log.Info().Str("user_id", user.ID).Msg("refresh token predates password change")
		return nil, domain.ErrTokenInvalid
	}

	return i.IssueSession(ctx, user)
}

// VerifyAccess checks signature, expiry, issuer and token type, then the
// deny-list when one is configured. A deny-list outage fails closed.
func (i *TokenIssuer) VerifyAccess(ctx context.Context, accessToken string) (*domain.AccessClaims, error) {
	if accessToken == "" {
		return nil, domain.ErrTokenInvalid
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	}
	if i.cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(i.cfg.Issuer))
	}

	var c accessTokenClaims
	tkn, err := jwt.ParseWithClaims(accessToken, &c, func(*jwt.Token) (any, error) {
		return []byte(i.cfg.Secret), nil
	}, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if !tkn.Valid || c.Type != accessTokenType || c.Subject == "" || c.ID == "" {
		return nil, domain.ErrTokenInvalid
	}

	if i.denylist != nil {
		revoked, err := i.denylist.IsRevoked(ctx, c.ID)
		if err != nil {
			i.log.Error().Err(err).Msg("access deny-list unavailable")
			return nil, fmt.Errorf("verify access: %w: %w", domain.ErrStoreUnavailable, err)
		}
		if revoked {
			return nil, domain.ErrTokenInvalid
		}
	}

	return &domain.AccessClaims{
		UserID:    c.Subject,
		Username:  c.Username,
		Email:     c.Email,
		ID:        c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

// Revoke deletes a single refresh token of userID. Unknown tokens and
// tokens of other users are not an error and are left untouched.
func (i *TokenIssuer) Revoke(ctx context.Context, refreshToken, userID string) error {
	if refreshToken == "" || userID == "" {
		return nil
	}
	found, err := i.tokens.Delete(ctx, hashToken(refreshToken), userID)
	if err != nil {
		i.log.Error().Err(err).Str("user_id", userID).Msg("failed to revoke refresh token")
		return err
	}
	if !found {
		i.log.Debug().Str("user_id", userID).Msg("logout with unknown refresh token")
	}
	return nil
}

// RevokeAccess deny-lists the access token until it would have expired.
func (i *TokenIssuer) RevokeAccess(ctx context.Context, claims *domain.AccessClaims) error {
	if i.denylist == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(i.now())
	if ttl <= 0 {
		return nil
	}
	if err := i.denylist.Revoke(ctx, claims.ID, ttl); err != nil {
		i.log.Error().Err(err).Str("user_id", claims.UserID).Msg("failed to deny-list access token")
		return fmt.Errorf("revoke access: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// RevokeAllForUser deletes every refresh token owned by userID.
func (i *TokenIssuer) RevokeAllForUser(ctx context.Context, userID string) error {
	n, err := i.tokens.DeleteAllForUser(ctx, userID)
	if err != nil {
		i.log.Error().Err(err).Str("user_id", userID).Msg("failed to revoke sessions")
		return err
	}
	i.log.Info().Str("user_id", userID).Int64("revoked", n).Msg("sessions revoked")
	return nil
}

func (i *TokenIssuer) signAccess(user *domain.User, now time.Time) (string, time.Time, error) {
	exp := now.Add(i.cfg.AccessTTL)
	claims := accessTokenClaims{
		Username: user.Username,
		Email:    user.Email,
		Type:     accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    i.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(i.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

func newRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// hashToken is the storage key of a refresh token.
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

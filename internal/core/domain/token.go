package domain

import "time"

// TokenTypeBearer is the scheme clients use to present access tokens.
const TokenTypeBearer = "Bearer"

// RefreshToken is the persisted half of a session. Only the SHA-256 digest of
// the opaque token is stored.
type RefreshToken struct {
	TokenHash string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ValidFor reports whether the token is still usable by u at now: unexpired
// and minted no earlier than the last password change.
func (t *RefreshToken) ValidFor(u *User, now time.Time) bool {
	if !now.Before(t.ExpiresAt) {
		return false
	}
	if u == nil || !u.Active {
		return false
	}
	return !t.IssuedAt.Before(u.PasswordChangedAt)
}

// TokenPair is what a successful login or refresh hands back to the caller.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	ExpiresIn        int64     `json:"expires_in"`
	AccessExpiresAt  time.Time `json:"-"`
	RefreshExpiresAt time.Time `json:"-"`
}

// AccessClaims is the verified identity carried by an access token.
type AccessClaims struct {
	UserID    string
	Username  string
	Email     string
	ID        string
	ExpiresAt time.Time
}

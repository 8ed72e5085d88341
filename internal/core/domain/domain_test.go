package domain

import (
	"testing"
	"time"
)

func TestRefreshToken_ValidFor(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	user := &User{Active: true, PasswordChangedAt: now.Add(-time.Hour)}
	tok := RefreshToken{IssuedAt: now.Add(-time.Minute), ExpiresAt: now.Add(time.Hour)}

	if !tok.ValidFor(user, now) {
		t.Fatalf("expected token to be valid")
	}
	if tok.ValidFor(user, tok.ExpiresAt) {
		t.Fatalf("token must be invalid at expires_at")
	}
	if tok.ValidFor(nil, now) {
		t.Fatalf("token without owner must be invalid")
	}

	inactive := *user
	inactive.Active = false
	if tok.ValidFor(&inactive, now) {
		t.Fatalf("token of a disabled account must be invalid")
	}

	changed := *user
	changed.PasswordChangedAt = now
	if tok.ValidFor(&changed, now) {
		t.Fatalf("token issued before a password change must be invalid")
	}
	changed.PasswordChangedAt = tok.IssuedAt
	if !tok.ValidFor(&changed, now) {
		t.Fatalf("token issued at the change instant stays valid")
	}
}

func TestResetCode_Active(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := ResetCode{CreatedAt: now, ExpiresAt: now.Add(ResetCodeTTL)}

	if !c.Active(now) {
		t.Fatalf("fresh code should be active")
	}
	if c.Active(c.ExpiresAt) {
		t.Fatalf("code must be inactive at expires_at")
	}
	c.Used = true
	if c.Active(now) {
		t.Fatalf("used code must be inactive")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Fatalf("NormalizeEmail = %q", got)
	}
}

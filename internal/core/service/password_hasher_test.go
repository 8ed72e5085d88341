package service

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/adamchat/account-service/internal/core/domain"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	h := testHasher()
	salt, err := h.NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	if len(salt) != 32 {
		t.Fatalf("expected 32 hex chars, got %d", len(salt))
	}

	for _, pw := range []string{"correct horse", "p@ssw0rd!", "ünïcödé-pass", " spaced "} {
		hash, err := h.Hash(pw, salt)
		if err != nil {
			t.Fatalf("Hash(%q): %v", pw, err)
		}
		if !strings.HasPrefix(hash, "argon2id$") {
			t.Fatalf("unexpected hash format %q", hash)
		}
		if !h.Verify(pw, salt, hash) {
			t.Fatalf("Verify(%q) = false", pw)
		}
		if h.Verify(pw+"x", salt, hash) {
			t.Fatalf("Verify accepted a different password for %q", pw)
		}
	}
}

func TestPasswordHasher_Deterministic(t *testing.T) {
	h := testHasher()
	salt, _ := h.NewSalt()

	a, _ := h.Hash("same-password", salt)
	b, _ := h.Hash("same-password", salt)
	if a != b {
		t.Fatalf("hash is not deterministic for a fixed salt")
	}

	other, _ := h.NewSalt()
	c, _ := h.Hash("same-password", other)
	if a == c {
		t.Fatalf("different salts produced the same hash")
	}
	if h.Verify("same-password", other, a) {
		t.Fatalf("Verify accepted the wrong salt")
	}
}

func TestPasswordHasher_MalformedInput(t *testing.T) {
	h := testHasher()

	if _, err := h.Hash("password", "not-hex"); err == nil {
		t.Fatalf("expected error for malformed salt")
	}

	salt, _ := h.NewSalt()
	for _, bad := range []string{"", "plain", "argon2id$t=1$abc", "argon2id$t=x,m=1,p=1$00", "sha256$t=1,m=1,p=1$00"} {
		if h.Verify("password", salt, bad) {
			t.Fatalf("Verify accepted malformed hash %q", bad)
		}
	}
}

func TestPasswordHasher_VerifiesWithStoredParams(t *testing.T) {
	old := NewPasswordHasher(Argon2Params{Time: 1, MemoryKB: 512, Threads: 1})
	salt, _ := old.NewSalt()
	hash, _ := old.Hash("password-1", salt)

	current := testHasher()
	if !current.Verify("password-1", salt, hash) {
		t.Fatalf("hash made with older params must still verify")
	}
	if !current.NeedsRehash(hash) {
		t.Fatalf("hash made with older params should need a rehash")
	}

	fresh, _ := current.Hash("password-1", salt)
	if current.NeedsRehash(fresh) {
		t.Fatalf("hash made with current params should not need a rehash")
	}
}

func TestPasswordHasher_LegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	h := testHasher()
	if !h.Verify("old-password", "", string(legacy)) {
		t.Fatalf("bcrypt hash should verify")
	}
	if h.Verify("wrong-password", "", string(legacy)) {
		t.Fatalf("bcrypt hash accepted a wrong password")
	}
	if !h.NeedsRehash(string(legacy)) {
		t.Fatalf("bcrypt hash should need a rehash")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		pw   string
		weak bool
	}{
		{"short", true},
		{"12345678", true},
		{"NewPass1", false},
		{"correct horse battery", false},
		{"ññññññññ", false},
	}
	for _, tt := range tests {
		err := validatePassword(tt.pw)
		if got := errors.Is(err, domain.ErrWeakPassword); got != tt.weak {
			t.Fatalf("validatePassword(%q) weak = %v, want %v (err=%v)", tt.pw, got, tt.weak, err)
		}
	}
}

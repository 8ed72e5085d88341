package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/adamchat/account-service/internal/core/ports"
)

const (
	saltBytes    = 16
	hashPrefix   = "argon2id"
	bcryptPrefix = "$2"
)

var errMalformedSalt = errors.New("malformed salt")

// Argon2Params tunes the argon2id key derivation.
type Argon2Params struct {
	Time     uint32
	MemoryKB uint32
	Threads  uint8
	KeyLen   uint32
}

// DefaultArgon2Params follows the RFC 9106 second recommended option.
var DefaultArgon2Params = Argon2Params{Time: 3, MemoryKB: 64 * 1024, Threads: 4, KeyLen: 32}

var _ ports.PasswordHasher = (*PasswordHasher)(nil)

// PasswordHasher produces "argon2id$t=..,m=..,p=..$<hex>" digests over a
// per-user hex salt. Digests written by the previous bcrypt scheme are still
// accepted by Verify and reported by NeedsRehash.
type PasswordHasher struct {
	params Argon2Params
}

// NewPasswordHasher returns a hasher using p, or the defaults for zero fields.
func NewPasswordHasher(p Argon2Params) *PasswordHasher {
	if p.Time == 0 {
		p.Time = DefaultArgon2Params.Time
	}
	if p.MemoryKB == 0 {
		p.MemoryKB = DefaultArgon2Params.MemoryKB
	}
	if p.Threads == 0 {
		p.Threads = DefaultArgon2Params.Threads
	}
	if p.KeyLen == 0 {
		p.KeyLen = DefaultArgon2Params.KeyLen
	}
	return &PasswordHasher{params: p}
}

// NewSalt returns 16 random bytes, hex encoded.
func (h *PasswordHasher) NewSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Hash derives the digest of password under salt with the current parameters.
func (h *PasswordHasher) Hash(password, salt string) (string, error) {
	key, err := derive(password, salt, h.params)
	if err != nil {
		return "", err
	}
	return encodeHash(h.params, key), nil
}

// Verify recomputes the digest with the parameters recorded in expectedHash
// and compares in constant time.
func (h *PasswordHasher) Verify(password, salt, expectedHash string) bool {
	if strings.HasPrefix(expectedHash, bcryptPrefix) {
		return bcrypt.CompareHashAndPassword([]byte(expectedHash), []byte(password)) == nil
	}

	p, want, err := decodeHash(expectedHash)
	if err != nil {
		return false
	}
	got, err := derive(password, salt, p)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}

// NeedsRehash reports whether hash was produced by an older scheme or with
// parameters other than the current ones.
func (h *PasswordHasher) NeedsRehash(hash string) bool {
	if strings.HasPrefix(hash, bcryptPrefix) {
		return true
	}
	p, _, err := decodeHash(hash)
	if err != nil {
		return true
	}
	return p != h.params
}

func derive(password, salt string, p Argon2Params) ([]byte, error) {
	raw, err := hex.DecodeString(salt)
	if err != nil || len(raw) == 0 {
		return nil, errMalformedSalt
	}
	return argon2.IDKey([]byte(password), raw, p.Time, p.MemoryKB, p.Threads, p.KeyLen), nil
}

func encodeHash(p Argon2Params, key []byte) string {
	return fmt.Sprintf("%s$t=%d,m=%d,p=%d$%s", hashPrefix, p.Time, p.MemoryKB, p.Threads, hex.EncodeToString(key))
}

func decodeHash(s string) (Argon2Params, []byte, error) {
	var p Argon2Params
	parts := strings.Split(s, "$")
	if len(parts) != 3 || parts[0] != hashPrefix {
		return p, nil, fmt.Errorf("unknown hash format")
	}
	if _, err := fmt.Sscanf(parts[1], "t=%d,m=%d,p=%d", &p.Time, &p.MemoryKB, &p.Threads); err != nil {
		return p, nil, fmt.Errorf("parse hash params: %w", err)
	}
	key, err := hex.DecodeString(parts[2])
	if err != nil || len(key) == 0 {
		return p, nil, fmt.Errorf("decode hash key")
	}
	p.KeyLen = uint32(len(key))
	return p, key, nil
}

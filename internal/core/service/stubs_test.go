package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/adamchat/account-service/internal/core/domain"
	"github.com/adamchat/account-service/internal/core/ports"
)

// ── users ─────────────────────────────────────────────────────────────────────

type stubUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	nextID  int
	findErr error
	// replaced counts ReplaceHash calls.
	replaced int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	cp := cloneUser(user)
	cp.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[cp.ID] = cp
	return cloneUser(cp), nil
}

func (r *stubUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, hash, salt string, changedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash, u.PasswordSalt = hash, salt
	u.UpdatedAt, u.PasswordChangedAt = changedAt, changedAt
	return nil
}

func (r *stubUserRepo) ReplaceHash(_ context.Context, id, hash, salt string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash, u.PasswordSalt = hash, salt
	r.replaced++
	return nil
}

func (r *stubUserRepo) get(id string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneUser(r.users[id])
}

func (r *stubUserRepo) put(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = cloneUser(u)
}

// ── refresh tokens ────────────────────────────────────────────────────────────

type stubRefreshRepo struct {
	mu        sync.Mutex
	tokens    map[string]domain.RefreshToken
	deleteErr error
}

func newStubRefreshRepo() *stubRefreshRepo {
	return &stubRefreshRepo{tokens: make(map[string]domain.RefreshToken)}
}

func (r *stubRefreshRepo) Insert(_ context.Context, t *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[t.TokenHash] = *t
	return nil
}

func (r *stubRefreshRepo) ConsumeIfValid(_ context.Context, hash string, now time.Time) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[hash]
	if !ok || !now.Before(t.ExpiresAt) {
		return nil, domain.ErrTokenInvalid
	}
	delete(r.tokens, hash)
	return &t, nil
}

func (r *stubRefreshRepo) Delete(_ context.Context, hash, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[hash]
	if !ok || t.UserID != userID {
		return false, nil
	}
	delete(r.tokens, hash)
	return true, nil
}

func (r *stubRefreshRepo) DeleteAllForUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	var n int64
	for k, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

func (r *stubRefreshRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// ── reset codes ───────────────────────────────────────────────────────────────

type stubResetRepo struct {
	mu    sync.Mutex
	codes []domain.ResetCode
}

func (r *stubResetRepo) DeleteAllForEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.codes[:0]
	for _, c := range r.codes {
		if c.Email != email {
			kept = append(kept, c)
		}
	}
	r.codes = kept
	return nil
}

func (r *stubResetRepo) Insert(_ context.Context, c *domain.ResetCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, *c)
	return nil
}

func (r *stubResetRepo) FindActive(_ context.Context, email, code string, now time.Time) (*domain.ResetCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.latest(email)
	if i < 0 || r.codes[i].Code != code || !r.codes[i].Active(now) {
		return nil, domain.ErrCodeInvalidOrExpired
	}
	c := r.codes[i]
	return &c, nil
}

func (r *stubResetRepo) MarkUsed(_ context.Context, email, code string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.latest(email)
	if i < 0 || r.codes[i].Code != code || !r.codes[i].Active(now) {
		return domain.ErrCodeInvalidOrExpired
	}
	r.codes[i].Used = true
	return nil
}

// latest returns the index of the newest code for email, later inserts
// winning ties, or -1.
func (r *stubResetRepo) latest(email string) int {
	idx := -1
	for i, c := range r.codes {
		if c.Email != email {
			continue
		}
		if idx < 0 || !c.CreatedAt.Before(r.codes[idx].CreatedAt) {
			idx = i
		}
	}
	return idx
}

func (r *stubResetRepo) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.codes)
}

// ── notifier / denylist / clock ───────────────────────────────────────────────

type stubNotifier struct {
	mu    sync.Mutex
	sent  map[string]string
	calls int
	err   error
}

func (n *stubNotifier) SendResetCode(_ context.Context, email, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.err != nil {
		return n.err
	}
	if n.sent == nil {
		n.sent = make(map[string]string)
	}
	n.sent[email] = code
	return nil
}

func (n *stubNotifier) last(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[email]
}

type stubDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	err     error
}

func (d *stubDenylist) Revoke(_ context.Context, id string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	if d.revoked == nil {
		d.revoked = make(map[string]time.Duration)
	}
	d.revoked[id] = ttl
	return nil
}

func (d *stubDenylist) IsRevoked(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	_, ok := d.revoked[id]
	return ok, nil
}

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// testHasher keeps argon2 cheap in tests.
func testHasher() *PasswordHasher {
	return NewPasswordHasher(Argon2Params{Time: 1, MemoryKB: 1024, Threads: 1})
}

// fixture wires every service over the stubs with a shared fake clock.
type fixture struct {
	users    *stubUserRepo
	tokens   *stubRefreshRepo
	codes    *stubResetRepo
	notifier *stubNotifier
	denylist *stubDenylist
	clock    *fakeClock
	hasher   *PasswordHasher
	issuer   *TokenIssuer
	sessions *SessionInvalidator
	resets   *ResetCodeService
	auth     *AuthService
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	f := &fixture{
		users:    newStubUserRepo(),
		tokens:   newStubRefreshRepo(),
		codes:    &stubResetRepo{},
		notifier: &stubNotifier{},
		denylist: &stubDenylist{},
		clock:    newFakeClock(),
		hasher:   testHasher(),
	}
	log := zerolog.Nop()
	clock := WithClock(f.clock.Now)

	f.issuer = NewTokenIssuer(f.users, f.tokens, f.denylist, TokenConfig{
		Secret:     "test-secret",
		Issuer:     "account-service-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}, log, clock)
	f.sessions = NewSessionInvalidator(f.issuer, log)
	f.resets = NewResetCodeService(f.users, f.codes, f.hasher, f.sessions, f.notifier, 0, log, clock)

	auth, err := NewAuthService(f.users, f.hasher, f.issuer, f.sessions, f.resets, log, clock)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	f.auth = auth
	return f
}

// register creates an active account with the given password.
func (f *fixture) register(t testing.TB, username, email, password string) *domain.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), ports.RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

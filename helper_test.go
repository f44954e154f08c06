package authcore

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testConfig = func() Config {
	cfg := DefaultConfig()
	cfg.Token.AccessSecret = []byte("test-access-secret-0123456789abcdef")
	cfg.Token.RefreshSecret = []byte("test-refresh-secret-0123456789abcdef")
	return cfg
}()

// memUsers is the in-memory UserStore used across the engine tests.
type memUsers struct {
	mu    sync.RWMutex
	users map[string]UserRecord
	// failAll forces every call to return a non-taxonomy error, to
	// exercise the upstream-failure paths.
	failAll error
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]UserRecord)}
}

func (s *memUsers) put(rec UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[rec.Email] = rec
}

func (s *memUsers) FindByEmail(_ context.Context, email string) (*UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failAll != nil {
		return nil, s.failAll
	}
	rec, ok := s.users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &rec, nil
}

func (s *memUsers) Create(_ context.Context, input CreateUserInput) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAll != nil {
		return nil, s.failAll
	}
	if _, ok := s.users[input.Email]; ok {
		return nil, ErrConflict
	}
	rec := UserRecord{
		Email:            input.Email,
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Picture:          input.Picture,
		PasswordHash:     input.PasswordHash,
		TwoFactorEnabled: input.TwoFactorEnabled,
		Verified:         input.Verified,
		IsAdmin:          input.IsAdmin,
	}
	s.users[input.Email] = rec
	return &rec, nil
}

func (s *memUsers) SetPassword(_ context.Context, email, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAll != nil {
		return s.failAll
	}
	rec, ok := s.users[email]
	if !ok {
		return ErrUserNotFound
	}
	rec.PasswordHash = passwordHash
	s.users[email] = rec
	return nil
}

// captureMailer records the last send so tests can read the OTP out of
// the template vars.
type captureMailer struct {
	mu       sync.Mutex
	lastTo   string
	lastTpl  string
	lastVars map[string]string
	sends    int
	fail     error
}

func (m *captureMailer) Send(_ context.Context, to, templateName string, vars map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail != nil {
		return m.fail
	}
	m.lastTo = to
	m.lastTpl = templateName
	m.lastVars = vars
	m.sends++
	return nil
}

func (m *captureMailer) lastOTP() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastVars["otp"]
}

type testEnv struct {
	engine *Engine
	users  *memUsers
	mailer *captureMailer
	redis  *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	users := newMemUsers()
	mailer := &captureMailer{}

	engine, err := New().
		WithConfig(testConfig).
		WithRedis(rdb).
		WithUserStore(users).
		WithMailer(mailer).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}

	return &testEnv{engine: engine, users: users, mailer: mailer, redis: mr}
}

// seedUser creates an account with the given password already hashed.
func (env *testEnv) seedUser(t *testing.T, email, pass string, twoFactor bool) {
	t.Helper()

	hash, err := env.engine.hasher.Hash(pass)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	env.users.put(UserRecord{
		Email:            email,
		FirstName:        "Alice",
		LastName:         "Doe",
		PasswordHash:     hash,
		TwoFactorEnabled: twoFactor,
		Verified:         true,
	})
}

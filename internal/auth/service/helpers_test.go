package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fricon/coreapi/internal/auth/domain"
	"github.com/fricon/coreapi/internal/auth/store"
	"github.com/fricon/coreapi/internal/auth/store/drivers/sqlite"
	"github.com/fricon/coreapi/pkg/cryptox"
	"github.com/fricon/coreapi/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type failingTokens struct{}

func (failingTokens) Generate() (string, error) { return "", errors.New("entropy exhausted") }

type failingHistory struct{}

func (failingHistory) AppendPasswordHistory(context.Context, int64, string, time.Time) error {
	return errors.New("history unavailable")
}

func (failingHistory) ListRecentPasswordHashes(context.Context, int64, int) ([]string, error) {
	return nil, errors.New("history unavailable")
}

type testEnv struct {
	auth     *AuthService
	store    *sqlite.Store
	clock    *fakeClock
	hasher   *cryptox.PasswordHasher
	verifier jwtx.Verifier
}

var testMeta = domain.ClientMeta{IPAddress: "10.1.2.3", UserAgent: "service-test"}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	signer, err := jwtx.NewSignerHS256("test", []byte(strings.Repeat("s", 32)))
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)}
	hasher := cryptox.NewPasswordHasher("test-pepper")

	auth := NewAuthService(Config{}, Deps{
		Store:  s,
		Signer: signer,
		Hasher: hasher,
		Clock:  clock,
	})

	return &testEnv{
		auth:   auth,
		store:  s,
		clock:  clock,
		hasher: hasher,
		verifier: signer.Verifier(jwtx.VerifyOptions{
			Issuer: DefaultConfig().Issuer,
			Now:    clock.Now,
		}),
	}
}

// addUser creates a user; an empty password leaves it unset.
func (e *testEnv) addUser(t *testing.T, username, email, password string, roles ...string) int64 {
	t.Helper()
	ctx := context.Background()

	var hash string
	if password != "" {
		var err error
		hash, err = e.hasher.Hash(password)
		require.NoError(t, err)
	}

	id, err := e.store.Users().CreateUser(ctx, domain.User{
		Username:     username,
		Email:        email,
		FirstName:    "First",
		LastName:     "Last",
		PasswordHash: hash,
		CreatedAt:    e.clock.Now(),
	})
	require.NoError(t, err)

	for _, r := range roles {
		e.assignRole(t, id, r)
	}
	return id
}

func (e *testEnv) assignRole(t *testing.T, userID int64, name string) {
	t.Helper()
	ctx := context.Background()

	role, err := e.store.Roles().GetRoleByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		role.ID, err = e.store.Roles().CreateRole(ctx, domain.Role{Name: name, CreatedAt: e.clock.Now()})
	}
	require.NoError(t, err)
	require.NoError(t, e.store.Roles().AssignRole(ctx, userID, role.ID))
}

func (e *testEnv) user(t *testing.T, id int64) domain.User {
	t.Helper()
	u, err := e.store.Users().GetUserByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (e *testEnv) failedAttempts(t *testing.T, userID int64) int {
	t.Helper()
	n, err := e.store.LoginAttempts().CountFailedLoginAttemptsSince(context.Background(), userID, time.Time{})
	require.NoError(t, err)
	return n
}

func (e *testEnv) login(t *testing.T, identifier, password string, rememberMe bool) *domain.LoginResult {
	t.Helper()
	res, err := e.auth.Login(context.Background(), LoginInput{
		Identifier: identifier,
		Password:   password,
		RememberMe: rememberMe,
		Meta:       testMeta,
	})
	require.NoError(t, err)
	return res
}

package auth_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fricon/coreapi/internal/auth/app"
	"github.com/fricon/coreapi/internal/auth/domain"
	"github.com/fricon/coreapi/internal/auth/store"
	"github.com/fricon/coreapi/internal/auth/store/drivers/sqlite"
	"github.com/fricon/coreapi/pkg/authsdk"
	"github.com/fricon/coreapi/pkg/cryptox"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * End-to-end tests run the fully wired application in process against a
 * real database file and drive it through the SDK client.
 */

const (
	adminUsername = "admin"
	adminEmail    = "admin@fricon.test"
	adminPassword = "Admin123!"
	testSecret    = "e2e-secret-that-is-at-least-32-bytes!"
)

type testApp struct {
	baseURL string
	client  *authsdk.SDKClient
	env     map[string]string
}

type appOption func(env map[string]string)

func withEnv(key, value string) appOption {
	return func(env map[string]string) { env[key] = value }
}

// relaxedRateLimits keeps the strict and moderate profiles out of the way
// of tests that make many rapid requests.
func relaxedRateLimits() appOption {
	return func(env map[string]string) {
		for _, p := range []string{"STRICT", "MODERATE"} {
			env["RATELIMIT_"+p+"_REQUESTS"] = "1000"
			env["RATELIMIT_"+p+"_BURST"] = "1000"
		}
	}
}

// startApp seeds an admin account, then builds the application from
// environment variables the way cmd/auth does.
func startApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()

	dir := t.TempDir()
	env := map[string]string{
		"ENV":                "test",
		"LOG_LEVEL":          "error",
		"AUTH_DATABASE_FILE": filepath.Join(dir, "core.db"),
		"AUTH_PEPPER_FILE":   filepath.Join(dir, "pepper"),
		"JWT_SECRET":         testSecret,
		"COOKIE_SECURE":      "false",
	}
	for _, opt := range opts {
		opt(env)
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	seedUser(t, env, domain.User{Username: adminUsername, Email: adminEmail, FirstName: "Ada", LastName: "Admin"}, adminPassword, "ADMIN")

	cfg := app.LoadConfig()
	application, err := app.New(cfg)
	require.NoError(t, err)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		server.Close()
		require.NoError(t, application.Shutdown())
	})

	return &testApp{
		baseURL: server.URL,
		client:  authsdk.NewSDKClient(server.URL),
		env:     env,
	}
}

func (a *testApp) seed(t *testing.T, u domain.User, password string, roles ...string) {
	t.Helper()
	seedUser(t, a.env, u, password, roles...)
}

// seedUser writes a user straight into the database file. An empty
// password leaves the account without one.
func seedUser(t *testing.T, env map[string]string, u domain.User, password string, roles ...string) {
	t.Helper()
	ctx := context.Background()

	pepper, err := cryptox.LoadOrCreatePepper(env["AUTH_PEPPER_FILE"])
	require.NoError(t, err)

	db, err := sqlite.NewStore("file:" + env["AUTH_DATABASE_FILE"])
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	require.NoError(t, db.ApplyMigrations())

	if password != "" {
		u.PasswordHash, err = cryptox.NewPasswordHasher(pepper).Hash(password)
		require.NoError(t, err)
	}
	u.CreatedAt = time.Now().UTC()

	id, err := db.Users().CreateUser(ctx, u)
	require.NoError(t, err)

	for _, name := range roles {
		role, err := db.Roles().GetRoleByName(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			role.ID, err = db.Roles().CreateRole(ctx, domain.Role{Name: name, CreatedAt: u.CreatedAt})
		}
		require.NoError(t, err)
		require.NoError(t, db.Roles().AssignRole(ctx, id, role.ID))
	}
}

// startRedis runs a throwaway Redis container and returns its host and port.
func startRedis(t *testing.T) (string, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return host, port.Port()
}

// assertAPIError checks the status and error code of an SDK error.
func assertAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)

	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr, "expected an API error, got %v", err)
	require.Equal(t, status, apiErr.StatusCode, "unexpected status: %s", apiErr.Description)
	require.Equal(t, code, apiErr.Code)
}

func fileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	return err == nil
}

func mustLogin(t *testing.T, a *testApp, identifier, password string) *authsdk.Session {
	t.Helper()
	session, err := a.client.AuthenticateWithPassword(t.Context(), identifier, password, false)
	require.NoError(t, err, "login as %s", identifier)
	return session
}

package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fricon/coreapi/pkg/cryptox"
	"github.com/fricon/coreapi/pkg/jwtx"
	"github.com/fricon/coreapi/pkg/slogx"
)

var validSecret = strings.Repeat("k", 32)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", validSecret)
		cfg := LoadConfig()

		require.Equal(t, 8080, cfg.Port)
		require.Equal(t, "dev", cfg.Env)
		require.Equal(t, "fricon-core-api", cfg.Issuer)
		require.Equal(t, "HS256", cfg.Algorithm)
		require.Equal(t, 15*time.Minute, cfg.AccessTTL)
		require.Equal(t, 24*time.Hour, cfg.RefreshTTL)
		require.Equal(t, 30*24*time.Hour, cfg.RememberMeTTL)
		require.Equal(t, 5, cfg.MaxLoginAttempts)
		require.Equal(t, 15*time.Minute, cfg.LockoutWindow)
		require.Equal(t, 90*24*time.Hour, cfg.AuditRetention)
		require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
		require.False(t, cfg.CookieSecure)
		require.Empty(t, cfg.RedisHost)
		require.NoError(t, cfg.Validate())
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("ENV", "prod")
		t.Setenv("JWT_SECRET", validSecret)
		t.Setenv("JWT_ACCESS_TOKEN_EXPIRATION", "5m")
		t.Setenv("JWT_REFRESH_TOKEN_EXPIRATION", "2d")
		t.Setenv("LOCKOUT_DURATION", "60000")
		t.Setenv("AUDIT_RETENTION_DAYS", "30")
		t.Setenv("SHUTDOWN_GRACE_PERIOD", "3")
		t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test")
		t.Setenv("REDIS_HOST", "cache")
		t.Setenv("REDIS_PORT", "6380")

		cfg := LoadConfig()

		require.Equal(t, 9090, cfg.Port)
		require.True(t, cfg.CookieSecure)
		require.Equal(t, 5*time.Minute, cfg.AccessTTL)
		require.Equal(t, 48*time.Hour, cfg.RefreshTTL)
		require.Equal(t, time.Minute, cfg.LockoutWindow)
		require.Equal(t, 30*24*time.Hour, cfg.AuditRetention)
		require.Equal(t, 3*time.Second, cfg.ShutdownGracePeriod)
		require.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSOrigins)
		require.Equal(t, "cache:6380", cfg.RedisAddr())

		svc := cfg.ServiceConfig()
		require.Equal(t, 5*time.Minute, svc.AccessTTL)
		require.Equal(t, time.Minute, svc.LockoutWindow)
	})

	t.Run("unparseable values fall back", func(t *testing.T) {
		t.Setenv("PORT", "eighty")
		t.Setenv("COOKIE_SECURE", "maybe")
		t.Setenv("JWT_ACCESS_TOKEN_EXPIRATION", "soon")

		cfg := LoadConfig()
		require.Equal(t, 8080, cfg.Port)
		require.False(t, cfg.CookieSecure)
		require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	})
}

func TestConfigValidate(t *testing.T) {
	base := func() Config {
		t.Setenv("JWT_SECRET", validSecret)
		return LoadConfig()
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"short secret", func(c *Config) { c.Secret = "short" }, "JWT_SECRET"},
		{"eddsa needs no secret", func(c *Config) { c.Algorithm = "EdDSA"; c.Secret = "" }, ""},
		{"unknown algorithm", func(c *Config) { c.Algorithm = "RS256" }, "unsupported JWT_ALGORITHM"},
		{"bad port", func(c *Config) { c.Port = 0 }, "invalid PORT"},
		{"no attempts", func(c *Config) { c.MaxLoginAttempts = 0 }, "MAX_LOGIN_ATTEMPTS"},
		{"no lockout window", func(c *Config) { c.LockoutWindow = 0 }, "LOCKOUT_DURATION"},
		{"refresh longer than remember me", func(c *Config) { c.RefreshTTL = 60 * 24 * time.Hour }, "JWT_REFRESH_TOKEN_EXPIRATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.errMsg)
		})
	}

	t.Run("reports every problem", func(t *testing.T) {
		cfg := base()
		cfg.Secret = ""
		cfg.Port = -1

		err := cfg.Validate()
		require.ErrorContains(t, err, "JWT_SECRET")
		require.ErrorContains(t, err, "invalid PORT")
	})
}

func TestInitSigner(t *testing.T) {
	logger := slogx.Discard()

	t.Run("hs256", func(t *testing.T) {
		signer, verifier, err := InitSigner(Config{Algorithm: "hs256", Secret: validSecret, Issuer: "iss"}, logger)
		require.NoError(t, err)
		require.Equal(t, "HS256", signer.Alg())

		token, err := signer.Sign(jwtx.NewAccessClaims(1, "u", "", nil, jwtx.NewJTI(), "iss", time.Minute, time.Now()))
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		require.NoError(t, err)
	})

	t.Run("eddsa from key file", func(t *testing.T) {
		pemKey, err := cryptox.GenerateEd25519Key()
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "jwt.pem")
		require.NoError(t, os.WriteFile(path, pemKey, 0o600))

		signer, _, err := InitSigner(Config{Algorithm: "EdDSA", PrivateKeyFile: path, Issuer: "iss"}, logger)
		require.NoError(t, err)
		require.Equal(t, "EdDSA", signer.Alg())
	})

	t.Run("eddsa ephemeral", func(t *testing.T) {
		signer, _, err := InitSigner(Config{Algorithm: "EdDSA", Issuer: "iss"}, logger)
		require.NoError(t, err)
		require.Equal(t, "EdDSA", signer.Alg())
	})

	t.Run("missing key file", func(t *testing.T) {
		_, _, err := InitSigner(Config{Algorithm: "EdDSA", PrivateKeyFile: filepath.Join(t.TempDir(), "nope.pem")}, logger)
		require.ErrorContains(t, err, "read private key")
	})

	t.Run("short secret", func(t *testing.T) {
		_, _, err := InitSigner(Config{Algorithm: "HS256", Secret: "short"}, logger)
		require.Error(t, err)
	})
}

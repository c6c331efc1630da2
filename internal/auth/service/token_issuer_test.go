package service

import (
	"testing"
	"time"

	"github.com/fricon/coreapi/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestParseExpiration(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"15m":  900,
		"1h":   3600,
		"7d":   604800,
		"30d":  2592000,
		"45s":  45,
		"1200": 1200,
		"":     900,
		"abc":  900,
		"m":    900,
		"-5m":  900,
		"0":    900,
		" 2h ": 7200,
	}

	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			require.Equal(t, want, ParseExpiration(in))
		})
	}

	require.Equal(t, 15*time.Minute, ParseExpirationDuration("15m"))
}

func TestTokenIssuer(t *testing.T) {
	e := newTestEnv(t)
	issuer := e.auth.Issuer
	now := e.clock.Now()

	t.Run("access token carries identity and roles", func(t *testing.T) {
		u := domain.User{ID: 42, Username: "carla", Email: "carla@example.com", Roles: []string{"ADMIN", "USER"}}

		at, err := issuer.IssueAccess(u, now)
		require.NoError(t, err)
		require.NotEmpty(t, at.JTI)
		require.Equal(t, now.Add(15*time.Minute), at.ExpiresAt)

		claims, err := e.verifier.Verify(at.Token)
		require.NoError(t, err)
		require.Equal(t, "42", claims.Subject)
		require.Equal(t, "carla", claims.Username)
		require.Equal(t, "carla@example.com", claims.Email)
		require.Equal(t, []string{"ADMIN", "USER"}, claims.Roles)
		require.Equal(t, at.JTI, claims.ID)
		require.Equal(t, "fricon-core-api", claims.Issuer)
	})

	t.Run("each access token has its own id", func(t *testing.T) {
		a, err := issuer.IssueAccess(domain.User{ID: 1, Username: "a"}, now)
		require.NoError(t, err)
		b, err := issuer.IssueAccess(domain.User{ID: 1, Username: "a"}, now)
		require.NoError(t, err)
		require.NotEqual(t, a.JTI, b.JTI)
	})

	t.Run("refresh lifetimes", func(t *testing.T) {
		require.Equal(t, 30*24*time.Hour, issuer.RefreshLifetime(true))
		require.Equal(t, 24*time.Hour, issuer.RefreshLifetime(false))
		require.Equal(t, 900, issuer.AccessExpiresIn())
	})

	t.Run("opaque secrets are random", func(t *testing.T) {
		a, err := issuer.GenerateOpaque()
		require.NoError(t, err)
		b, err := issuer.GenerateOpaque()
		require.NoError(t, err)
		require.NotEqual(t, a, b)
		require.Len(t, a, 43)
	})
}

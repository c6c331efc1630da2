package auth_test

import (
	"net/http"
	"testing"

	"github.com/fricon/coreapi/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestRefreshRotation(t *testing.T) {
	a := startApp(t, relaxedRateLimits())
	ctx := t.Context()

	login, err := a.client.Login(ctx, authsdk.LoginRequest{Identifier: adminUsername, Password: adminPassword})
	require.NoError(t, err)

	rotated, err := a.client.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, rotated.RefreshToken)
	require.NotEqual(t, login.AccessToken, rotated.AccessToken)
	require.Equal(t, adminUsername, rotated.User.Username)

	t.Run("old token is single use", func(t *testing.T) {
		_, err := a.client.Refresh(ctx, login.RefreshToken)
		assertAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidOrExpiredToken)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := a.client.Refresh(ctx, "not-a-real-token")
		assertAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidOrExpiredToken)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := a.client.Refresh(ctx, "")
		assertAPIError(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest)
	})

	t.Run("new token keeps working", func(t *testing.T) {
		_, err := a.client.Refresh(ctx, rotated.RefreshToken)
		require.NoError(t, err)
	})
}

func TestSessionLifecycle(t *testing.T) {
	a := startApp(t, relaxedRateLimits())
	ctx := t.Context()

	session := mustLogin(t, a, adminUsername, adminPassword)
	require.Equal(t, adminUsername, session.User().Username)

	profile, err := session.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, adminUsername, profile.Username)
	require.Equal(t, adminEmail, profile.Email)
	require.NotNil(t, profile.LastLoginAt)
	require.Equal(t, []string{"ADMIN"}, profile.Roles)

	before := session.RefreshToken()
	require.NoError(t, session.Refresh(ctx))
	require.NotEqual(t, before, session.RefreshToken())

	refreshToken := session.RefreshToken()
	require.NoError(t, session.Logout(ctx))
	require.Empty(t, session.RefreshToken())

	_, err = a.client.Refresh(ctx, refreshToken)
	assertAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidOrExpiredToken)

	t.Run("me requires a bearer token", func(t *testing.T) {
		_, err := a.client.Me(ctx, "")
		assertAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken)
	})
}

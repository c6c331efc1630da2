package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, mux *http.ServeMux) *SDKClient {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewSDKClient(srv.URL + "/")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		switch req.Password {
		case "right":
			writeJSON(w, http.StatusOK, TokenResponse{
				AccessToken:      "access",
				RefreshToken:     "refresh",
				TokenType:        "Bearer",
				ExpiresIn:        900,
				RefreshExpiresIn: 2592000,
				RememberMe:       req.RememberMe,
				User:             UserSummary{ID: 7, Username: req.Identifier, Roles: []string{"USER"}},
			})
		case "locked":
			ErrAccountLocked.WriteError(w)
		default:
			ErrInvalidCredentials.WriteError(w)
		}
	})
	client := newTestServer(t, mux)

	t.Run("success", func(t *testing.T) {
		tokens, err := client.Login(ctx, LoginRequest{Identifier: "ana", Password: "right", RememberMe: true})
		require.NoError(t, err)
		require.Equal(t, "access", tokens.AccessToken)
		require.Equal(t, 2592000, tokens.RefreshExpiresIn)
		require.True(t, tokens.RememberMe)
		require.Equal(t, int64(7), tokens.User.ID)
	})

	t.Run("typed errors", func(t *testing.T) {
		_, err := client.Login(ctx, LoginRequest{Identifier: "ana", Password: "wrong"})
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = client.Login(ctx, LoginRequest{Identifier: "ana", Password: "locked"})
		require.ErrorIs(t, err, ErrAccountLocked)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	})
}

func TestValidationMessages(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/set-first-password", func(w http.ResponseWriter, r *http.Request) {
		NewAPIError(http.StatusBadRequest, ErrorCodeValidationFailed, "validation failed",
			"password is too weak (weak), choose a stronger one").WriteError(w)
	})
	client := newTestServer(t, mux)

	err := client.SetFirstPassword(context.Background(), SetFirstPasswordRequest{
		Username: "ana", NewPassword: "abc", ConfirmPassword: "abc",
	})
	require.ErrorIs(t, err, ErrValidationFailed)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, []string{"password is too weak (weak), choose a stronger one"}, apiErr.Messages)
	require.Contains(t, apiErr.Error(), "too weak")
}

func TestUnstructuredErrorResponse(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})
	client := newTestServer(t, mux)

	_, err := client.GetLiveness(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Equal(t, ErrorCodeServerError, apiErr.Code)
}

func TestSessionRefreshesExpiredToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		// Already expired once the buffer is applied.
		writeJSON(w, http.StatusOK, TokenResponse{AccessToken: "a0", RefreshToken: "r0", ExpiresIn: 1})
	})
	mux.HandleFunc("POST /v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.RefreshToken != "r0" {
			ErrInvalidOrExpiredToken.WriteError(w)
			return
		}
		refreshes.Add(1)
		writeJSON(w, http.StatusOK, TokenResponse{AccessToken: "a1", RefreshToken: "r1", ExpiresIn: 900})
	})
	mux.HandleFunc("GET /v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer a1" {
			ErrInvalidToken.WriteError(w)
			return
		}
		writeJSON(w, http.StatusOK, ProfileResponse{UserID: 3, Username: "ana", Roles: []string{}})
	})
	mux.HandleFunc("POST /v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		var req LogoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "r1", req.RefreshToken)
		writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
	})
	client := newTestServer(t, mux)

	session, err := client.AuthenticateWithPassword(ctx, "ana", "pw", false)
	require.NoError(t, err)

	profile, err := session.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "ana", profile.Username)
	require.Equal(t, "a1", session.AccessToken())
	require.Equal(t, "r1", session.RefreshToken())

	_, err = session.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, int32(1), refreshes.Load())

	require.NoError(t, session.Logout(ctx))
	require.Empty(t, session.RefreshToken())
}

func TestPasswordStrengthAndHealth(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/password-strength", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, PasswordStrengthResponse{Score: 70, Level: "Strong", Color: "#88cc00", Acceptable: true})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "degraded",
			Checks: &HealthChecks{Database: "ok", Signer: "ok", Redis: "error: down"},
		})
	})
	client := newTestServer(t, mux)

	strength, err := client.PasswordStrength(ctx, "correct-Horse-battery-9")
	require.NoError(t, err)
	require.True(t, strength.Acceptable)
	require.Equal(t, "Strong", strength.Level)

	health, err := client.GetReadiness(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	require.Equal(t, ErrorCodeServiceUnavailable, apiErr.Code)
	require.NotNil(t, health)
	require.Equal(t, "degraded", health.Status)
}

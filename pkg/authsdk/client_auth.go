package authsdk

import (
	"context"
	"net/http"
)

// Login authenticates with a username or email and a password.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/login", "", req)
	if err != nil {
		return nil, err
	}

	var tokens TokenResponse
	if err := decodeJSON(resp, &tokens, http.StatusOK); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Refresh exchanges a refresh token for a new token pair. The given refresh
// token is spent whether or not the caller receives the response.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/refresh", "", RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}

	var tokens TokenResponse
	if err := decodeJSON(resp, &tokens, http.StatusOK); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Logout ends the session of refreshToken. It succeeds even when the token
// was already revoked.
func (c *SDKClient) Logout(ctx context.Context, accessToken, refreshToken string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/logout", accessToken, LogoutRequest{RefreshToken: refreshToken})
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// ChangePassword sets a new password for the owner of accessToken. Every
// other session of the user ends.
func (c *SDKClient) ChangePassword(ctx context.Context, accessToken string, req ChangePasswordRequest) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/change-password", accessToken, req)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// SetFirstPassword sets the password of an account that has none.
func (c *SDKClient) SetFirstPassword(ctx context.Context, req SetFirstPasswordRequest) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/set-first-password", "", req)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// Me returns the profile of the owner of accessToken.
func (c *SDKClient) Me(ctx context.Context, accessToken string) (*ProfileResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/v1/auth/me", accessToken, nil)
	if err != nil {
		return nil, err
	}

	var profile ProfileResponse
	if err := decodeJSON(resp, &profile, http.StatusOK); err != nil {
		return nil, err
	}
	return &profile, nil
}

// PasswordStrength scores a candidate password without storing anything.
func (c *SDKClient) PasswordStrength(ctx context.Context, password string) (*PasswordStrengthResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/password-strength", "", PasswordStrengthRequest{Password: password})
	if err != nil {
		return nil, err
	}

	var strength PasswordStrengthResponse
	if err := decodeJSON(resp, &strength, http.StatusOK); err != nil {
		return nil, err
	}
	return &strength, nil
}

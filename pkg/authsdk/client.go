package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the core API authentication service.
// It provides access to unauthenticated operations and can create authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// AuthenticateWithPassword logs in and returns a session that refreshes its
// access token on its own.
func (c *SDKClient) AuthenticateWithPassword(ctx context.Context, identifier, password string, rememberMe bool) (*Session, error) {
	tokenResp, err := c.Login(ctx, LoginRequest{
		Identifier: identifier,
		Password:   password,
		RememberMe: rememberMe,
	})
	if err != nil {
		return nil, err
	}

	return newSession(c, tokenResp), nil
}

// AuthenticateWithRefreshToken creates an authenticated session from an existing refresh token.
func (c *SDKClient) AuthenticateWithRefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	tokenResp, err := c.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	return newSession(c, tokenResp), nil
}

// NewSessionFromTokens creates an authenticated session from existing tokens.
// The session will still refresh when the access token expires.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string, expiresIn int) *Session {
	return &Session{
		client:       c,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    expiryFrom(expiresIn),
	}
}

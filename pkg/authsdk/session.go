package authsdk

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// expiryBuffer refreshes access tokens slightly before they expire.
const expiryBuffer = 30 * time.Second

// Session represents an authenticated session with automatic token refresh.
// All Session methods automatically handle token expiration and refresh when needed.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	user         UserSummary
}

// newSession creates a new authenticated session from a token response.
func newSession(client *SDKClient, tokenResp *TokenResponse) *Session {
	return &Session{
		client:       client,
		accessToken:  tokenResp.AccessToken,
		refreshToken: tokenResp.RefreshToken,
		expiresAt:    expiryFrom(tokenResp.ExpiresIn),
		user:         tokenResp.User,
	}
}

func expiryFrom(expiresIn int) time.Time {
	return time.Now().Add(time.Duration(expiresIn)*time.Second - expiryBuffer)
}

// getValidToken returns a valid access token, automatically refreshing if expired.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock (another goroutine may have refreshed)
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}
	if err := s.refreshLocked(ctx); err != nil {
		return "", err
	}
	return s.accessToken, nil
}

// Refresh rotates the session's tokens now.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *Session) refreshLocked(ctx context.Context) error {
	if s.refreshToken == "" {
		return fmt.Errorf("access token expired and no refresh token available")
	}

	tokenResp, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	s.accessToken = tokenResp.AccessToken
	s.refreshToken = tokenResp.RefreshToken
	s.expiresAt = expiryFrom(tokenResp.ExpiresIn)
	s.user = tokenResp.User
	return nil
}

// Me returns the profile of the session's user.
func (s *Session) Me(ctx context.Context) (*ProfileResponse, error) {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.Me(ctx, token)
}

// ChangePassword changes the session user's password. The server ends every
// session of the user, this one included.
func (s *Session) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return err
	}
	return s.client.ChangePassword(ctx, token, req)
}

// Logout revokes the session's refresh token.
func (s *Session) Logout(ctx context.Context) error {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	refreshToken := s.refreshToken
	s.refreshToken = ""
	s.mu.Unlock()

	return s.client.Logout(ctx, token, refreshToken)
}

// AccessToken returns the current access token without checking expiration.
// For most use cases, prefer using the Session methods which handle refresh automatically.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// User returns the user from the latest token response.
func (s *Session) User() UserSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

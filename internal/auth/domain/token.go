package domain

import "time"

// LoginResult is returned by login and refresh.
type LoginResult struct {
	AccessToken      string      `json:"accessToken"`
	RefreshToken     string      `json:"refreshToken"`
	TokenType        string      `json:"tokenType"`        // always "Bearer"
	ExpiresIn        int         `json:"expiresIn"`        // access token lifetime in seconds
	RefreshExpiresIn int         `json:"refreshExpiresIn"` // refresh token lifetime in seconds
	RememberMe       bool        `json:"rememberMe"`
	User             UserSummary `json:"user"`
}

// RefreshToken models the stored refresh token record. The opaque value is
// never stored, only its fingerprint.
type RefreshToken struct {
	ID         string
	UserID     int64
	TokenHash  string // base64url SHA-256 of the opaque value
	SessionID  string
	RememberMe bool
	Revoked    bool
	RevokedAt  *time.Time
	ExpiresAt  time.Time
	IPAddress  string
	UserAgent  string
	CreatedAt  time.Time
}

// IsActive reports whether the token is neither revoked nor expired at now.
func (t RefreshToken) IsActive(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// RefreshTokenStats summarises the refresh token table.
type RefreshTokenStats struct {
	Total            int64 `json:"total"`
	Active           int64 `json:"active"`
	Expired          int64 `json:"expired"`
	Revoked          int64 `json:"revoked"`
	RememberMeActive int64 `json:"rememberMeActive"`
}

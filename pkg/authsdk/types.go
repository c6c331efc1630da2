package authsdk

import "time"

// ============================================================================
// Error Types
// ============================================================================

// ErrorResponse is the JSON body of every non-2xx response.
// Client code should use the APIError type from errors.go instead.
type ErrorResponse struct {
	// Error is the machine readable error code (e.g., "invalid_credentials")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`

	// Messages lists individual reasons, set for validation_failed only
	Messages []string `json:"messages,omitempty"`
}

// ============================================================================
// Request Types
// ============================================================================

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	// Identifier is the username, or the email address of the account
	Identifier string `json:"identifier" validate:"required,max=255"`

	// Password is the plaintext password
	Password string `json:"password" validate:"required,max=1024"`

	// RememberMe extends the refresh token lifetime (30 days instead of 1)
	RememberMe bool `json:"rememberMe"`
}

// RefreshRequest is the body of POST /v1/auth/refresh. The refresh token may
// instead be sent as the refresh_token cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LogoutRequest is the body of POST /v1/auth/logout.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest is the body of POST /v1/auth/change-password.
// CurrentPassword may be empty only for an account without a password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"max=1024"`
	NewPassword     string `json:"newPassword" validate:"required,max=1024"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,max=1024"`
}

// SetFirstPasswordRequest is the body of POST /v1/auth/set-first-password.
type SetFirstPasswordRequest struct {
	Username        string `json:"username" validate:"required,max=255"`
	NewPassword     string `json:"newPassword" validate:"required,max=1024"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,max=1024"`
}

// PasswordStrengthRequest is the body of POST /v1/auth/password-strength.
type PasswordStrengthRequest struct {
	Password string `json:"password" validate:"max=1024"`
}

// ============================================================================
// Token Types
// ============================================================================

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	// AccessToken is the signed JWT used to authenticate API requests
	AccessToken string `json:"accessToken"`

	// RefreshToken is the opaque token used to obtain new access tokens.
	// It is single use: every refresh returns a new one.
	RefreshToken string `json:"refreshToken"`

	// TokenType is always "Bearer"
	TokenType string `json:"tokenType"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int `json:"expiresIn"`

	// RefreshExpiresIn is the lifetime in seconds of the refresh token
	RefreshExpiresIn int `json:"refreshExpiresIn"`

	RememberMe bool        `json:"rememberMe"`
	User       UserSummary `json:"user"`
}

// UserSummary is the user embedded in a TokenResponse.
type UserSummary struct {
	ID        int64    `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email,omitempty"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Roles     []string `json:"roles"`
}

// ============================================================================
// User Types
// ============================================================================

// ProfileResponse is returned by GET /v1/auth/me.
type ProfileResponse struct {
	UserID      int64      `json:"userId"`
	Username    string     `json:"username"`
	Email       string     `json:"email,omitempty"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Locked      bool       `json:"locked"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Roles       []string   `json:"roles"`
}

// PasswordStrengthResponse scores a candidate password.
type PasswordStrengthResponse struct {
	// Score is between 0 and 100
	Score int `json:"score"`

	// Level is one of "Very Weak", "Weak", "Medium", "Strong", "Very Strong"
	Level string `json:"level"`

	// Color is a display hint for the level
	Color string `json:"color"`

	// Acceptable reports whether the score meets the minimum for a new password
	Acceptable bool `json:"acceptable"`
}

// MessageResponse is returned by endpoints without a payload of their own.
type MessageResponse struct {
	Message string `json:"message"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status ("ok" or "degraded")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the database connection status
	Database string `json:"database"`

	// Signer indicates the JWT signing capability status
	Signer string `json:"signer"`

	// Redis indicates the shared rate limit store status, omitted when not configured
	Redis string `json:"redis,omitempty"`
}

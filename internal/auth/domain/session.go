package domain

import "time"

// UserSession mirrors one login and the refresh rotations that follow it.
type UserSession struct {
	ID               string
	UserID           int64
	JWTID            string // jti of the latest access token
	RefreshTokenHash string // fingerprint of the latest refresh token
	RotatedFromJTI   string // jti the latest access token replaced
	IPAddress        string
	UserAgent        string
	LoginAt          time.Time
	Revoked          bool
	LogoutAt         *time.Time
}

// AttemptAction tags an entry of the login attempt ledger.
type AttemptAction string

const (
	ActionSuccess              AttemptAction = "SUCCESS"
	ActionInvalidPassword      AttemptAction = "INVALID_PASSWORD"
	ActionTokenRefresh         AttemptAction = "TOKEN_REFRESH"
	ActionTokenRefreshFailed   AttemptAction = "TOKEN_REFRESH_FAILED"
	ActionLogout               AttemptAction = "LOGOUT"
	ActionLogoutFailed         AttemptAction = "LOGOUT_FAILED"
	ActionPasswordChanged      AttemptAction = "PASSWORD_CHANGED"
	ActionFirstPasswordSet     AttemptAction = "FIRST_PASSWORD_SET"
	ActionChangePasswordFailed AttemptAction = "CHANGE_PASSWORD_FAILED"
)

type LoginAttempt struct {
	ID          int64
	UserID      int64
	Success     bool
	Action      AttemptAction
	IPAddress   string
	AttemptedAt time.Time
}

// ClientMeta describes the caller of a flow.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

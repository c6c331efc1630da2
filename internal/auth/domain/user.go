package domain

import "time"

type User struct {
	ID           int64
	Username     string
	Email        string // optional, unique when set
	FirstName    string
	LastName     string
	PasswordHash string // argon2id or legacy bcrypt; empty until the first password is set
	Locked       bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time

	// Roles are the role names attached to the user, read fresh on every load.
	Roles []string
}

// HasPassword reports whether the user can authenticate with a password.
func (u User) HasPassword() bool { return u.PasswordHash != "" }

// UserSummary is the user projection returned alongside issued tokens.
type UserSummary struct {
	ID        int64    `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email,omitempty"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Roles     []string `json:"roles"`
}

func (u User) Summary() UserSummary {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Roles:     roles,
	}
}

// Profile is what an authenticated user can read about themselves.
type Profile struct {
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

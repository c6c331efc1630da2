package service

import "time"

// Config carries the policy knobs of the auth flows.
type Config struct {
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration // without remember-me
	RememberMeTTL time.Duration

	MaxLoginAttempts int
	LockoutWindow    time.Duration

	// PasswordHistoryDepth is how many previous passwords may not be reused.
	PasswordHistoryDepth int

	// RevokedRetention is how long revoked refresh tokens are kept.
	RevokedRetention time.Duration
}

func DefaultConfig() Config {
	return Config{
		Issuer:               "fricon-core-api",
		AccessTTL:            15 * time.Minute,
		RefreshTTL:           24 * time.Hour,
		RememberMeTTL:        30 * 24 * time.Hour,
		MaxLoginAttempts:     5,
		LockoutWindow:        15 * time.Minute,
		PasswordHistoryDepth: 5,
		RevokedRetention:     7 * 24 * time.Hour,
	}
}

// withDefaults fills zero values from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Issuer == "" {
		c.Issuer = d.Issuer
	}
	if c.AccessTTL <= 0 {
		c.AccessTTL = d.AccessTTL
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = d.RefreshTTL
	}
	if c.RememberMeTTL <= 0 {
		c.RememberMeTTL = d.RememberMeTTL
	}
	if c.MaxLoginAttempts <= 0 {
		c.MaxLoginAttempts = d.MaxLoginAttempts
	}
	if c.LockoutWindow <= 0 {
		c.LockoutWindow = d.LockoutWindow
	}
	if c.PasswordHistoryDepth <= 0 {
		c.PasswordHistoryDepth = d.PasswordHistoryDepth
	}
	if c.RevokedRetention <= 0 {
		c.RevokedRetention = d.RevokedRetention
	}
	return c
}

package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenTTL is used when no access lifetime is configured.
const DefaultAccessTokenTTL = 15 * time.Minute

// Claims are the access token claims. The subject carries the numeric user
// id; the remaining identity fields are copied from the user directory at
// issue time.
type Claims struct {
	jwt.RegisteredClaims

	Username string   `json:"username"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles"`
}

// NewAccessClaims builds access claims for userID valid for ttl from now.
func NewAccessClaims(
	userID int64,
	username, email string,
	roles []string,
	jti, issuer string,
	ttl time.Duration,
	now time.Time,
) Claims {
	if roles == nil {
		roles = []string{}
	}
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
		Username: username,
		Email:    email,
		Roles:    roles,
	}
}

// NewJTI returns a random URL-safe token identifier.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// UserID parses the numeric subject.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Join(ErrInvalidClaim, err)
	}
	return id, nil
}

// HasRole reports whether role is among the token roles.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ValidateIssuer checks the issuer; an empty expectation accepts anything.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected != "" && c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiryAt checks exp and nbf against now with the given leeway.
func (c *Claims) ValidateExpiryAt(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}

package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fricon/coreapi/internal/auth/domain"
	"github.com/fricon/coreapi/pkg/jwtx"
)

// DefaultExpirationSeconds is used when an expiration string cannot be parsed.
const DefaultExpirationSeconds = 900

// AccessToken is a signed access JWT and what the session ledger needs to
// know about it.
type AccessToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// TokenIssuer mints access tokens and opaque refresh secrets.
type TokenIssuer struct {
	Signer        jwtx.Signer
	Tokens        TokenGenerator
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	RememberMeTTL time.Duration
}

// IssueAccess signs an access token carrying the user's identity and the
// roles loaded with it.
func (i *TokenIssuer) IssueAccess(u domain.User, now time.Time) (AccessToken, error) {
	jti := jwtx.NewJTI()
	claims := jwtx.NewAccessClaims(u.ID, u.Username, u.Email, u.Roles, jti, i.Issuer, i.AccessTTL, now)

	token, err := i.Signer.Sign(claims)
	if err != nil {
		return AccessToken{}, fmt.Errorf("sign access token: %w", err)
	}
	return AccessToken{Token: token, JTI: jti, ExpiresAt: now.Add(i.AccessTTL)}, nil
}

// GenerateOpaque returns a fresh refresh token secret.
func (i *TokenIssuer) GenerateOpaque() (string, error) {
	return i.Tokens.Generate()
}

// RefreshLifetime is the refresh token validity for the remember-me choice.
func (i *TokenIssuer) RefreshLifetime(rememberMe bool) time.Duration {
	if rememberMe {
		return i.RememberMeTTL
	}
	return i.RefreshTTL
}

// AccessExpiresIn is the access token lifetime in seconds.
func (i *TokenIssuer) AccessExpiresIn() int {
	return int(i.AccessTTL / time.Second)
}

// ParseExpiration converts "15m", "1h", "7d", "30s" or bare seconds to
// seconds. Anything else, including non-positive values, yields
// DefaultExpirationSeconds.
func ParseExpiration(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultExpirationSeconds
	}

	unit := 1
	switch s[len(s)-1] {
	case 's':
		s = s[:len(s)-1]
	case 'm':
		unit, s = 60, s[:len(s)-1]
	case 'h':
		unit, s = 3600, s[:len(s)-1]
	case 'd':
		unit, s = 86400, s[:len(s)-1]
	}

	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return DefaultExpirationSeconds
	}
	return n * unit
}

// ParseExpirationDuration is ParseExpiration as a time.Duration.
func ParseExpirationDuration(s string) time.Duration {
	return time.Duration(ParseExpiration(s)) * time.Second
}

package http

import (
	"net/http"

	"github.com/fricon/coreapi/internal/auth/domain"
	"github.com/fricon/coreapi/pkg/httpx"
)

const (
	RefreshTokenCookie = "refresh_token"
	refreshCookiePath  = "/v1/auth"
)

// CookieConfig controls the token cookies set next to JSON responses.
type CookieConfig struct {
	Secure bool
}

func (c CookieConfig) setTokens(w http.ResponseWriter, res *domain.LoginResult) {
	http.SetCookie(w, c.cookie(httpx.AccessTokenCookie, res.AccessToken, "/", res.ExpiresIn))
	http.SetCookie(w, c.cookie(RefreshTokenCookie, res.RefreshToken, refreshCookiePath, res.RefreshExpiresIn))
}

func (c CookieConfig) clearTokens(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(httpx.AccessTokenCookie, "", "/", -1))
	http.SetCookie(w, c.cookie(RefreshTokenCookie, "", refreshCookiePath, -1))
}

func (c CookieConfig) cookie(name, value, path string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// refreshTokenFrom prefers the body value and falls back to the cookie.
func refreshTokenFrom(r *http.Request, body string) string {
	if body != "" {
		return body
	}
	if c, err := r.Cookie(RefreshTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

package http

import (
	"net/http"

	"github.com/fricon/coreapi/internal/auth/domain"
	"github.com/fricon/coreapi/internal/auth/service"
	"github.com/fricon/coreapi/pkg/authsdk"
	"github.com/fricon/coreapi/pkg/httpx"
)

// AuthHandler serves the /v1/auth endpoints.
type AuthHandler struct {
	Auth    *service.AuthService
	Cookies CookieConfig
}

func clientMeta(r *http.Request) domain.ClientMeta {
	return domain.ClientMeta{IPAddress: httpx.ClientIP(r), UserAgent: r.UserAgent()}
}

// HandleLogin serves POST /v1/auth/login. Tokens are returned in the body
// and as cookies.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.Auth.Login(r.Context(), service.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
		RememberMe: req.RememberMe,
		Meta:       clientMeta(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	setAuditSubject(r.Context(), res.User.ID, "")
	h.Cookies.setTokens(w, res)
	httpx.WriteJSON(w, http.StatusOK, res)
}

// HandleRefresh serves POST /v1/auth/refresh.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}

	token := refreshTokenFrom(r, req.RefreshToken)
	if token == "" {
		authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest,
			"refresh token is required").WriteError(w)
		return
	}

	res, err := h.Auth.Refresh(r.Context(), token, clientMeta(r))
	if err != nil {
		h.Cookies.clearTokens(w)
		writeServiceError(w, r, err)
		return
	}

	h.Cookies.setTokens(w, res)
	httpx.WriteJSON(w, http.StatusOK, res)
}

// HandleLogout serves POST /v1/auth/logout. It always succeeds for an
// authenticated caller.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpx.UserIDFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.LogoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	_ = h.Auth.Logout(r.Context(), refreshTokenFrom(r, req.RefreshToken), userID, clientMeta(r))

	h.Cookies.clearTokens(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "logged out"})
}

// HandleChangePassword serves POST /v1/auth/change-password.
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpx.UserIDFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.ChangePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.Auth.ChangePassword(r.Context(), service.ChangePasswordInput{
		UserID:          userID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
		Meta:            clientMeta(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Every session ended with the change, this one included.
	h.Cookies.clearTokens(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "password changed"})
}

// HandleSetFirstPassword serves POST /v1/auth/set-first-password. It is
// unauthenticated and must stay behind a strict rate limit.
func (h *AuthHandler) HandleSetFirstPassword(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SetFirstPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.Auth.SetFirstPassword(r.Context(), service.SetFirstPasswordInput{
		Username:        req.Username,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
		Meta:            clientMeta(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "password set"})
}

// HandleMe serves GET /v1/auth/me.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpx.UserIDFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	profile, err := h.Auth.GetProfile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, profile)
}

// HandlePasswordStrength serves POST /v1/auth/password-strength.
func (h *AuthHandler) HandlePasswordStrength(w http.ResponseWriter, r *http.Request) {
	var req authsdk.PasswordStrengthRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s := service.Strength(req.Password)
	httpx.WriteJSON(w, http.StatusOK, authsdk.PasswordStrengthResponse{
		Score:      s.Score,
		Level:      s.Level,
		Color:      s.Color,
		Acceptable: s.Score >= service.MinAcceptableScore,
	})
}

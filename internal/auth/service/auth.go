package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fricon/coreapi/internal/auth/domain"
	"github.com/fricon/coreapi/internal/auth/store"
	"github.com/fricon/coreapi/pkg/cryptox"
	"github.com/fricon/coreapi/pkg/idx"
	"github.com/fricon/coreapi/pkg/jwtx"
	"github.com/fricon/coreapi/pkg/slogx"
)

// TokenTypeBearer is the token type reported with every issued pair.
const TokenTypeBearer = "Bearer"

type LoginInput struct {
	Identifier string // username, or email
	Password   string
	RememberMe bool
	Meta       domain.ClientMeta
}

type ChangePasswordInput struct {
	UserID          int64
	CurrentPassword string // required unless the user has no password yet
	NewPassword     string
	ConfirmPassword string
	Meta            domain.ClientMeta
}

type SetFirstPasswordInput struct {
	Username        string
	NewPassword     string
	ConfirmPassword string
	Meta            domain.ClientMeta
}

// Deps are the collaborators of the auth flows.
type Deps struct {
	Store  store.Store
	Signer jwtx.Signer
	Hasher *cryptox.PasswordHasher
	Clock  Clock          // defaults to SystemClock
	Tokens TokenGenerator // defaults to RandomTokens
}

// AuthService composes credential checks, token issuance, refresh rotation
// and the attempt ledger into the login and password flows.
type AuthService struct {
	Store         store.Store
	Hasher        *cryptox.PasswordHasher
	Clock         Clock
	Policy        *PasswordPolicy
	Credentials   *CredentialValidator
	Issuer        *TokenIssuer
	RefreshTokens *RefreshTokens
	Ledger        *Ledger
}

func NewAuthService(cfg Config, deps Deps) *AuthService {
	cfg = cfg.withDefaults()
	if deps.Clock == nil {
		deps.Clock = SystemClock
	}
	if deps.Tokens == nil {
		deps.Tokens = RandomTokens()
	}

	issuer := &TokenIssuer{
		Signer:        deps.Signer,
		Tokens:        deps.Tokens,
		Issuer:        cfg.Issuer,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		RememberMeTTL: cfg.RememberMeTTL,
	}
	ledger := &Ledger{
		Store:       deps.Store,
		Clock:       deps.Clock,
		MaxAttempts: cfg.MaxLoginAttempts,
		Window:      cfg.LockoutWindow,
	}

	return &AuthService{
		Store:  deps.Store,
		Hasher: deps.Hasher,
		Clock:  deps.Clock,
		Policy: &PasswordPolicy{
			History: deps.Store.PasswordHistory(),
			Hasher:  deps.Hasher,
			Depth:   cfg.PasswordHistoryDepth,
		},
		Credentials: &CredentialValidator{
			Users:  deps.Store.Users(),
			Hasher: deps.Hasher,
			Ledger: ledger,
		},
		Issuer: issuer,
		RefreshTokens: &RefreshTokens{
			Store:            deps.Store,
			Issuer:           issuer,
			Clock:            deps.Clock,
			RevokedRetention: cfg.RevokedRetention,
		},
		Ledger: ledger,
	}
}

// Login authenticates the caller and opens a session.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*domain.LoginResult, error) {
	u, err := s.Credentials.Validate(ctx, in.Identifier, in.Password, in.Meta.IPAddress)
	if err != nil {
		return nil, err
	}

	log := slogx.FromContext(ctx).With("user_id", u.ID)
	now := s.Clock.Now()

	s.Ledger.RecordAttempt(ctx, u.ID, true, domain.ActionSuccess, in.Meta.IPAddress)
	if err := s.Store.Users().UpdateLastLogin(ctx, u.ID, now); err != nil {
		log.Warn("failed to update last login", "err", err)
	}
	s.upgradeHash(ctx, u, in.Password)

	access, err := s.Issuer.IssueAccess(u, now)
	if err != nil {
		return nil, err
	}

	sessionID := idx.NewAt(now).String()
	refresh, err := s.RefreshTokens.Create(ctx, u.ID, in.RememberMe, in.Meta, sessionID)
	if err != nil {
		return nil, err
	}

	err = s.Ledger.CreateSession(ctx, domain.UserSession{
		ID:               sessionID,
		UserID:           u.ID,
		JWTID:            access.JTI,
		RefreshTokenHash: refresh.Hash,
		IPAddress:        in.Meta.IPAddress,
		UserAgent:        in.Meta.UserAgent,
		LoginAt:          now,
	})
	if err != nil {
		return nil, err
	}

	log.Info("login succeeded", "session_id", sessionID, "remember_me", in.RememberMe)
	return s.result(u, access, refresh), nil
}

// upgradeHash re-hashes a legacy password hash with the current scheme
// after a successful login.
func (s *AuthService) upgradeHash(ctx context.Context, u domain.User, password string) {
	if !s.Hasher.NeedsRehash(u.PasswordHash) {
		return
	}
	log := slogx.FromContext(ctx)

	hash, err := s.Hasher.Hash(password)
	if err == nil {
		err = s.Store.Users().UpdatePasswordHash(ctx, u.ID, hash, s.Clock.Now())
	}
	if err != nil {
		log.Warn("failed to upgrade password hash", "user_id", u.ID, "err", err)
		return
	}
	log.Info("password hash upgraded", "user_id", u.ID)
}

// Refresh exchanges a refresh token for a new access token and a rotated
// refresh token. Roles are read again so the new access token reflects
// current grants.
func (s *AuthService) Refresh(ctx context.Context, opaque string, meta domain.ClientMeta) (*domain.LoginResult, error) {
	prev, err := s.RefreshTokens.Validate(ctx, opaque)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		s.recordRefreshFailure(ctx, opaque, meta)
		return nil, ErrInvalidOrExpiredToken
	}

	u, err := s.Store.Users().GetUserByID(ctx, prev.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidOrExpiredToken
	}
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	access, err := s.Issuer.IssueAccess(u, now)
	if err != nil {
		return nil, err
	}

	rotated, err := s.RefreshTokens.rotate(ctx, *prev, meta)
	if err != nil {
		if errors.Is(err, ErrInvalidOrExpiredToken) {
			s.Ledger.RecordAttempt(ctx, u.ID, false, domain.ActionTokenRefreshFailed, meta.IPAddress)
		}
		return nil, err
	}

	log := slogx.FromContext(ctx).With("user_id", u.ID)
	ok, err := s.Ledger.RotateSession(ctx, u.ID, prev.TokenHash, rotated.Next.Hash, access.JTI)
	switch {
	case err != nil:
		log.Warn("failed to rotate session", "err", err)
	case !ok:
		log.Warn("no active session for refreshed token", "session_id", prev.SessionID)
	}

	s.Ledger.RecordAttempt(ctx, u.ID, true, domain.ActionTokenRefresh, meta.IPAddress)
	log.Info("tokens refreshed", "token_id", rotated.Next.ID)

	return s.result(u, access, rotated.Next), nil
}

// recordRefreshFailure charges a failed refresh to the token's owner when
// the token is known at all.
func (s *AuthService) recordRefreshFailure(ctx context.Context, opaque string, meta domain.ClientMeta) {
	if opaque == "" {
		return
	}
	t, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(opaque))
	if err != nil {
		return
	}
	s.Ledger.RecordAttempt(ctx, t.UserID, false, domain.ActionTokenRefreshFailed, meta.IPAddress)
}

// Logout ends the session holding opaque and revokes the refresh token. It
// succeeds even when there is nothing left to revoke.
func (s *AuthService) Logout(ctx context.Context, opaque string, userID int64, meta domain.ClientMeta) error {
	log := slogx.FromContext(ctx).With("user_id", userID)
	failed := false

	found, err := s.Ledger.RevokeSession(ctx, userID, cryptox.FingerprintToken(opaque))
	switch {
	case err != nil:
		log.Error("failed to revoke session", "err", err)
		failed = true
	case !found:
		log.Warn("logout without an active session")
	}

	if _, err := s.RefreshTokens.Revoke(ctx, userID, opaque); err != nil {
		log.Error("failed to revoke refresh token", "err", err)
		failed = true
	}

	if failed {
		s.Ledger.RecordAttempt(ctx, userID, false, domain.ActionLogoutFailed, meta.IPAddress)
		return nil
	}

	s.Ledger.RecordAttempt(ctx, userID, true, domain.ActionLogout, meta.IPAddress)
	log.Info("logout succeeded")
	return nil
}

// ChangePassword sets a new password. A user who already has one must
// prove it; a user without one is doing first-time setup. Changing an
// existing password ends every session of the user.
func (s *AuthService) ChangePassword(ctx context.Context, in ChangePasswordInput) (err error) {
	log := slogx.FromContext(ctx).With("user_id", in.UserID)

	recorded := false
	defer func() {
		if err != nil && !recorded && !errors.Is(err, ErrNotFound) {
			s.Ledger.RecordAttempt(ctx, in.UserID, false, domain.ActionChangePasswordFailed, in.Meta.IPAddress)
		}
	}()

	if in.NewPassword != in.ConfirmPassword {
		return validationFailed("new password and confirmation do not match")
	}

	u, err := s.Store.Users().GetUserByID(ctx, in.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if u.Locked {
		return ErrAccountLocked
	}

	firstTime := !u.HasPassword()
	if firstTime {
		log.Info("first-time password setup")
	} else {
		if in.CurrentPassword == "" {
			return validationFailed("current password is required")
		}
		if err := s.Hasher.Verify(in.CurrentPassword, u.PasswordHash); err != nil {
			log.Warn("invalid current password on change")

			s.Ledger.RecordAttempt(ctx, u.ID, false, domain.ActionChangePasswordFailed, in.Meta.IPAddress)
			recorded = true
			if _, err := s.Ledger.CheckAndLock(ctx, u.ID); err != nil {
				log.Error("lockout evaluation failed", "err", err)
			}
			return ErrInvalidCredentials
		}
	}

	v := s.Policy.Validate(ctx, u.ID, in.NewPassword)
	if !v.Valid {
		log.Warn("password policy rejected new password", "errors", v.Errors)
		return validationFailed(v.Errors...)
	}

	hash, err := s.Hasher.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.Clock.Now()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, u.ID, hash, now); err != nil {
			return err
		}
		return tx.PasswordHistory().AppendPasswordHistory(ctx, u.ID, hash, now)
	})
	if err != nil {
		return fmt.Errorf("store password: %w", err)
	}

	action := domain.ActionFirstPasswordSet
	if !firstTime {
		action = domain.ActionPasswordChanged

		sessions, err := s.Ledger.RevokeAllSessions(ctx, u.ID)
		if err != nil {
			return err
		}
		tokens, err := s.RefreshTokens.RevokeAll(ctx, u.ID)
		if err != nil {
			return err
		}
		log.Info("sessions invalidated after password change", "sessions", sessions, "refresh_tokens", tokens)
	}

	s.Ledger.RecordAttempt(ctx, u.ID, true, action, in.Meta.IPAddress)
	recorded = true

	log.Info("password updated", "action", action, "strength", v.Strength.Level, "score", v.Strength.Score)
	return nil
}

// SetFirstPassword assigns a password to a user who has none, without
// authentication. Callers must guard it at the transport boundary.
func (s *AuthService) SetFirstPassword(ctx context.Context, in SetFirstPasswordInput) error {
	if in.NewPassword != in.ConfirmPassword {
		return validationFailed("new password and confirmation do not match")
	}

	u, err := s.Store.Users().GetUserByUsername(ctx, in.Username)
	if errors.Is(err, store.ErrNotFound) {
		slogx.FromContext(ctx).Warn("first password requested for unknown username")
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if u.HasPassword() {
		return validationFailed("password is already set, use change password instead")
	}

	return s.ChangePassword(ctx, ChangePasswordInput{
		UserID:          u.ID,
		NewPassword:     in.NewPassword,
		ConfirmPassword: in.ConfirmPassword,
		Meta:            in.Meta,
	})
}

// GetProfile returns the caller's own profile.
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &domain.Profile{
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Locked:      u.Locked,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		Roles:       u.Summary().Roles,
	}, nil
}

func (s *AuthService) result(u domain.User, access AccessToken, refresh IssuedRefreshToken) *domain.LoginResult {
	return &domain.LoginResult{
		AccessToken:      access.Token,
		RefreshToken:     refresh.Token,
		TokenType:        TokenTypeBearer,
		ExpiresIn:        s.Issuer.AccessExpiresIn(),
		RefreshExpiresIn: int(s.RefreshTokens.ExpirationTime(refresh.RememberMe) / time.Second),
		RememberMe:       refresh.RememberMe,
		User:             u.Summary(),
	}
}

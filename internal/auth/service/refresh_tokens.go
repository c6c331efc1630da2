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
	"github.com/fricon/coreapi/pkg/slogx"
)

// IssuedRefreshToken is a newly persisted refresh token. Token is the only
// copy of the opaque secret.
type IssuedRefreshToken struct {
	ID         string
	Token      string
	Hash       string
	SessionID  string
	RememberMe bool
	ExpiresAt  time.Time
}

// RotatedRefreshToken pairs the revoked predecessor with its successor.
type RotatedRefreshToken struct {
	Previous domain.RefreshToken
	Next     IssuedRefreshToken
}

// RefreshTokens persists, validates, rotates and revokes refresh tokens.
// Each row is looked up by the SHA-256 fingerprint of its secret.
type RefreshTokens struct {
	Store            store.Store
	Issuer           *TokenIssuer
	Clock            Clock
	RevokedRetention time.Duration
}

// Create stores a new refresh token for userID.
func (r *RefreshTokens) Create(
	ctx context.Context,
	userID int64,
	rememberMe bool,
	meta domain.ClientMeta,
	sessionID string,
) (IssuedRefreshToken, error) {
	opaque, err := r.Issuer.GenerateOpaque()
	if err != nil {
		return IssuedRefreshToken{}, err
	}

	now := r.Clock.Now()
	t := domain.RefreshToken{
		ID:         idx.NewAt(now).String(),
		UserID:     userID,
		TokenHash:  cryptox.FingerprintToken(opaque),
		SessionID:  sessionID,
		RememberMe: rememberMe,
		ExpiresAt:  now.Add(r.Issuer.RefreshLifetime(rememberMe)),
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		CreatedAt:  now,
	}
	if err := r.Store.RefreshTokens().CreateRefreshToken(ctx, t); err != nil {
		return IssuedRefreshToken{}, fmt.Errorf("create refresh token: %w", err)
	}

	slogx.FromContext(ctx).Debug("refresh token created",
		"user_id", userID, "token_id", t.ID, "remember_me", rememberMe, "expires_at", t.ExpiresAt)

	return IssuedRefreshToken{
		ID:         t.ID,
		Token:      opaque,
		Hash:       t.TokenHash,
		SessionID:  sessionID,
		RememberMe: rememberMe,
		ExpiresAt:  t.ExpiresAt,
	}, nil
}

// Validate returns the stored token for opaque, or nil when it is unknown,
// revoked, expired, or its owner is locked or deleted.
func (r *RefreshTokens) Validate(ctx context.Context, opaque string) (*domain.RefreshToken, error) {
	if opaque == "" {
		return nil, nil
	}
	log := slogx.FromContext(ctx)

	hash := cryptox.FingerprintToken(opaque)
	t, err := r.Store.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		log.Info("refresh token not found")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !cryptox.EqualFingerprints(t.TokenHash, hash) || !t.IsActive(r.Clock.Now()) {
		log.Info("refresh token no longer active", "token_id", t.ID, "revoked", t.Revoked)
		return nil, nil
	}

	u, err := r.Store.Users().GetUserByID(ctx, t.UserID)
	if errors.Is(err, store.ErrNotFound) {
		log.Warn("refresh token owner no longer exists", "user_id", t.UserID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if u.Locked {
		log.Warn("refresh token used by locked user", "user_id", t.UserID)
		return nil, nil
	}

	return &t, nil
}

// Rotate validates opaque, revokes it and issues its successor.
func (r *RefreshTokens) Rotate(ctx context.Context, opaque string, meta domain.ClientMeta) (RotatedRefreshToken, error) {
	prev, err := r.Validate(ctx, opaque)
	if err != nil {
		return RotatedRefreshToken{}, err
	}
	if prev == nil {
		return RotatedRefreshToken{}, ErrInvalidOrExpiredToken
	}
	return r.rotate(ctx, *prev, meta)
}

// rotate revokes prev only if it is still active, then creates the
// successor. Losing the revocation to a concurrent rotation or logout
// fails the call. A failed create leaves prev revoked.
func (r *RefreshTokens) rotate(ctx context.Context, prev domain.RefreshToken, meta domain.ClientMeta) (RotatedRefreshToken, error) {
	revoked, err := r.Store.RefreshTokens().RevokeRefreshTokenIfActive(ctx, prev.ID, r.Clock.Now())
	if err != nil {
		return RotatedRefreshToken{}, fmt.Errorf("revoke refresh token: %w", err)
	}
	if !revoked {
		slogx.FromContext(ctx).Warn("refresh token reused during rotation",
			"user_id", prev.UserID, "token_id", prev.ID)
		return RotatedRefreshToken{}, ErrInvalidOrExpiredToken
	}

	next, err := r.Create(ctx, prev.UserID, prev.RememberMe, meta, prev.SessionID)
	if err != nil {
		slogx.FromContext(ctx).Error("refresh token rotation left user without a token",
			"user_id", prev.UserID, "token_id", prev.ID, "err", err)
		return RotatedRefreshToken{}, err
	}

	prev.Revoked = true
	return RotatedRefreshToken{Previous: prev, Next: next}, nil
}

// Revoke revokes userID's token holding opaque. It reports whether a token
// was active and is now revoked.
func (r *RefreshTokens) Revoke(ctx context.Context, userID int64, opaque string) (bool, error) {
	if opaque == "" {
		return false, nil
	}
	t, err := r.Store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(opaque))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if t.UserID != userID {
		slogx.FromContext(ctx).Warn("refresh token presented by another user",
			"user_id", userID, "owner_id", t.UserID)
		return false, nil
	}
	return r.Store.RefreshTokens().RevokeRefreshTokenIfActive(ctx, t.ID, r.Clock.Now())
}

// RevokeAll revokes every active refresh token of userID.
func (r *RefreshTokens) RevokeAll(ctx context.Context, userID int64) (int64, error) {
	n, err := r.Store.RefreshTokens().RevokeAllUserRefreshTokens(ctx, userID, r.Clock.Now())
	if err != nil {
		return 0, fmt.Errorf("revoke refresh tokens: %w", err)
	}
	slogx.FromContext(ctx).Info("refresh tokens revoked", "user_id", userID, "count", n)
	return n, nil
}

// Sweep deletes expired tokens and tokens revoked longer than the retention.
func (r *RefreshTokens) Sweep(ctx context.Context) (int64, error) {
	now := r.Clock.Now()
	return r.Store.RefreshTokens().DeleteStaleRefreshTokens(ctx, now, now.Add(-r.RevokedRetention))
}

func (r *RefreshTokens) Stats(ctx context.Context) (domain.RefreshTokenStats, error) {
	return r.Store.RefreshTokens().RefreshTokenStats(ctx, r.Clock.Now())
}

// ExpirationTime is the lifetime a new token gets for the remember-me choice.
func (r *RefreshTokens) ExpirationTime(rememberMe bool) time.Duration {
	return r.Issuer.RefreshLifetime(rememberMe)
}

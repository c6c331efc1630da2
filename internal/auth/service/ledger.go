package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fricon/coreapi/internal/auth/domain"
	"github.com/fricon/coreapi/internal/auth/store"
	"github.com/fricon/coreapi/pkg/slogx"
)

// Ledger records login attempts and sessions, and locks accounts that fail
// too often inside the lockout window.
type Ledger struct {
	Store       store.Store
	Clock       Clock
	MaxAttempts int
	Window      time.Duration
}

// RecordAttempt appends to the attempt ledger. Storage failures are logged
// and never returned.
func (l *Ledger) RecordAttempt(ctx context.Context, userID int64, success bool, action domain.AttemptAction, ip string) {
	err := l.Store.LoginAttempts().RecordLoginAttempt(ctx, domain.LoginAttempt{
		UserID:      userID,
		Success:     success,
		Action:      action,
		IPAddress:   ip,
		AttemptedAt: l.Clock.Now(),
	})
	if err != nil {
		slogx.FromContext(ctx).Error("failed to record login attempt",
			"user_id", userID, "action", action, "err", err)
	}
}

// CheckAndLock counts the user's failures in the trailing window and locks
// the account once the count reaches MaxAttempts.
func (l *Ledger) CheckAndLock(ctx context.Context, userID int64) (bool, error) {
	now := l.Clock.Now()

	failed, err := l.Store.LoginAttempts().CountFailedLoginAttemptsSince(ctx, userID, now.Add(-l.Window))
	if err != nil {
		return false, fmt.Errorf("count failed attempts: %w", err)
	}
	if failed < l.MaxAttempts {
		return false, nil
	}

	if err := l.Store.Users().LockUser(ctx, userID, now); err != nil {
		return false, fmt.Errorf("lock user: %w", err)
	}
	slogx.FromContext(ctx).Warn("user locked after repeated failures",
		"user_id", userID, "failed_attempts", failed, "window", l.Window)
	return true, nil
}

func (l *Ledger) CreateSession(ctx context.Context, s domain.UserSession) error {
	if s.LoginAt.IsZero() {
		s.LoginAt = l.Clock.Now()
	}
	if err := l.Store.Sessions().CreateSession(ctx, s); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// RotateSession moves the user's active session from oldHash to the
// refresh token newHash and access token jti, keeping the replaced jti. It
// reports false when no active session holds oldHash.
func (l *Ledger) RotateSession(ctx context.Context, userID int64, oldHash, newHash, jti string) (bool, error) {
	s, err := l.Store.Sessions().GetActiveSession(ctx, userID, oldHash)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := l.Store.Sessions().RotateSession(ctx, s.ID, newHash, jti, s.JWTID); err != nil {
		return false, fmt.Errorf("rotate session: %w", err)
	}
	return true, nil
}

// RevokeSession ends the user's active session holding refreshHash. It
// reports false when no such session exists.
func (l *Ledger) RevokeSession(ctx context.Context, userID int64, refreshHash string) (bool, error) {
	s, err := l.Store.Sessions().GetActiveSession(ctx, userID, refreshHash)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return l.Store.Sessions().RevokeSession(ctx, s.ID, l.Clock.Now())
}

func (l *Ledger) RevokeAllSessions(ctx context.Context, userID int64) (int64, error) {
	n, err := l.Store.Sessions().RevokeAllUserSessions(ctx, userID, l.Clock.Now())
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	return n, nil
}

// SweepAttempts deletes ledger entries older than before.
func (l *Ledger) SweepAttempts(ctx context.Context, before time.Time) (int64, error) {
	return l.Store.LoginAttempts().DeleteLoginAttemptsBefore(ctx, before)
}

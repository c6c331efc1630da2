package service

import (
	"context"
	"testing"
	"time"

	"github.com/fricon/coreapi/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestLedgerLockout(t *testing.T) {
	ctx := context.Background()

	t.Run("locks at the threshold", func(t *testing.T) {
		e := newTestEnv(t)
		l := e.auth.Ledger
		uid := e.addUser(t, "lena", "", "Secret-Pass-1!")

		for range 4 {
			l.RecordAttempt(ctx, uid, false, domain.ActionInvalidPassword, "10.0.0.1")
		}
		locked, err := l.CheckAndLock(ctx, uid)
		require.NoError(t, err)
		require.False(t, locked)
		require.False(t, e.user(t, uid).Locked)

		l.RecordAttempt(ctx, uid, false, domain.ActionInvalidPassword, "10.0.0.1")
		locked, err = l.CheckAndLock(ctx, uid)
		require.NoError(t, err)
		require.True(t, locked)
		require.True(t, e.user(t, uid).Locked)
	})

	t.Run("only failures inside the window count", func(t *testing.T) {
		e := newTestEnv(t)
		l := e.auth.Ledger
		uid := e.addUser(t, "marta", "", "Secret-Pass-1!")

		for range 4 {
			l.RecordAttempt(ctx, uid, false, domain.ActionInvalidPassword, "10.0.0.1")
		}
		e.clock.Advance(16 * time.Minute)
		l.RecordAttempt(ctx, uid, false, domain.ActionInvalidPassword, "10.0.0.1")

		locked, err := l.CheckAndLock(ctx, uid)
		require.NoError(t, err)
		require.False(t, locked)
	})

	t.Run("successes do not count", func(t *testing.T) {
		e := newTestEnv(t)
		l := e.auth.Ledger
		uid := e.addUser(t, "rui", "", "Secret-Pass-1!")

		for range 10 {
			l.RecordAttempt(ctx, uid, true, domain.ActionSuccess, "10.0.0.1")
		}
		locked, err := l.CheckAndLock(ctx, uid)
		require.NoError(t, err)
		require.False(t, locked)
	})
}

func TestLedgerSessions(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	l := e.auth.Ledger
	uid := e.addUser(t, "sofia", "", "Secret-Pass-1!")

	require.NoError(t, l.CreateSession(ctx, domain.UserSession{
		ID:               "sess-1",
		UserID:           uid,
		JWTID:            "jti-1",
		RefreshTokenHash: "hash-1",
	}))

	t.Run("rotate keeps the replaced token id", func(t *testing.T) {
		ok, err := l.RotateSession(ctx, uid, "hash-1", "hash-2", "jti-2")
		require.NoError(t, err)
		require.True(t, ok)

		s, err := e.store.Sessions().GetActiveSession(ctx, uid, "hash-2")
		require.NoError(t, err)
		require.Equal(t, "jti-2", s.JWTID)
		require.Equal(t, "jti-1", s.RotatedFromJTI)

		ok, err = l.RotateSession(ctx, uid, "hash-1", "hash-3", "jti-3")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("revoke", func(t *testing.T) {
		ok, err := l.RevokeSession(ctx, uid+1, "hash-2")
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = l.RevokeSession(ctx, uid, "hash-2")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = l.RevokeSession(ctx, uid, "hash-2")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("revoke all", func(t *testing.T) {
		for _, id := range []string{"sess-a", "sess-b"} {
			require.NoError(t, l.CreateSession(ctx, domain.UserSession{
				ID: id, UserID: uid, JWTID: id, RefreshTokenHash: "h-" + id,
			}))
		}
		n, err := l.RevokeAllSessions(ctx, uid)
		require.NoError(t, err)
		require.Equal(t, int64(2), n)
	})
}

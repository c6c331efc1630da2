package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/fricon/coreapi/internal/auth/domain"
	"github.com/fricon/coreapi/internal/auth/store"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.UserSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_sessions
			(id, user_id, jwt_id, refresh_token_hash, rotated_from_jti, ip_address, user_agent, login_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.JWTID, s.RefreshTokenHash, s.RotatedFromJTI,
		s.IPAddress, s.UserAgent, millis(s.LoginAt),
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetActiveSession(ctx context.Context, userID int64, refreshHash string) (domain.UserSession, error) {
	var (
		s        domain.UserSession
		revoked  int
		loginAt  int64
		logoutAt sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, jwt_id, refresh_token_hash, rotated_from_jti, ip_address, user_agent,
			login_at, revoked, logout_at
		FROM user_sessions
		WHERE user_id = ? AND refresh_token_hash = ? AND revoked = 0
		ORDER BY login_at DESC LIMIT 1`, userID, refreshHash,
	).Scan(
		&s.ID, &s.UserID, &s.JWTID, &s.RefreshTokenHash, &s.RotatedFromJTI, &s.IPAddress, &s.UserAgent,
		&loginAt, &revoked, &logoutAt,
	)
	if err != nil {
		return domain.UserSession{}, mapNotFound(err)
	}

	s.LoginAt = fromMillis(loginAt)
	s.Revoked = revoked != 0
	s.LogoutAt = mapNullMillisPtr(logoutAt)
	return s, nil
}

func (r *sessionsRepo) RotateSession(ctx context.Context, sessionID, refreshHash, jti, previousJTI string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_sessions SET refresh_token_hash = ?, jwt_id = ?, rotated_from_jti = ?
		WHERE id = ? AND revoked = 0`,
		refreshHash, jti, previousJTI, sessionID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *sessionsRepo) RevokeSession(ctx context.Context, sessionID string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_sessions SET revoked = 1, logout_at = ? WHERE id = ? AND revoked = 0`,
		millis(now), sessionID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *sessionsRepo) RevokeAllUserSessions(ctx context.Context, userID int64, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_sessions SET revoked = 1, logout_at = ? WHERE user_id = ? AND revoked = 0`,
		millis(now), userID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/fricon/coreapi/internal/auth/domain"
)

type refreshTokensRepo struct {
	db dbtx
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens
			(id, user_id, token_hash, session_id, remember_me, expires_at, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.TokenHash, t.SessionID, boolInt(t.RememberMe),
		millis(t.ExpiresAt), t.IPAddress, t.UserAgent, millis(t.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	var (
		t                    domain.RefreshToken
		rememberMe, revoked  int
		revokedAt            sql.NullInt64
		expiresAt, createdAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, session_id, remember_me, revoked, revoked_at,
			expires_at, ip_address, user_agent, created_at
		FROM refresh_tokens WHERE token_hash = ?`, hash,
	).Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.SessionID, &rememberMe, &revoked, &revokedAt,
		&expiresAt, &t.IPAddress, &t.UserAgent, &createdAt,
	)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}

	t.RememberMe = rememberMe != 0
	t.Revoked = revoked != 0
	t.RevokedAt = mapNullMillisPtr(revokedAt)
	t.ExpiresAt = fromMillis(expiresAt)
	t.CreatedAt = fromMillis(createdAt)
	return t, nil
}

func (r *refreshTokensRepo) RevokeRefreshTokenIfActive(ctx context.Context, id string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked = 1, revoked_at = ?
		WHERE id = ? AND revoked = 0 AND expires_at > ?`,
		millis(now), id, millis(now),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *refreshTokensRepo) RevokeAllUserRefreshTokens(ctx context.Context, userID int64, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1, revoked_at = ? WHERE user_id = ? AND revoked = 0`,
		millis(now), userID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *refreshTokensRepo) DeleteStaleRefreshTokens(ctx context.Context, now, revokedBefore time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens
		WHERE expires_at <= ? OR (revoked = 1 AND revoked_at < ?)`,
		millis(now), millis(revokedBefore),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *refreshTokensRepo) RefreshTokenStats(ctx context.Context, now time.Time) (domain.RefreshTokenStats, error) {
	var s domain.RefreshTokenStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN revoked = 0 AND expires_at > ?1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN revoked = 0 AND expires_at <= ?1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN revoked = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN revoked = 0 AND expires_at > ?1 AND remember_me = 1 THEN 1 ELSE 0 END), 0)
		FROM refresh_tokens`, millis(now),
	).Scan(&s.Total, &s.Active, &s.Expired, &s.Revoked, &s.RememberMeActive)
	return s, err
}

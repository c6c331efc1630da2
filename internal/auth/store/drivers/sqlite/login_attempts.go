package sqlite

import (
	"context"
	"time"

	"github.com/fricon/coreapi/internal/auth/domain"
)

type loginAttemptsRepo struct {
	db dbtx
}

func (r *loginAttemptsRepo) RecordLoginAttempt(ctx context.Context, a domain.LoginAttempt) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO login_attempts (user_id, success, action, ip_address, attempted_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.UserID, boolInt(a.Success), string(a.Action), a.IPAddress, millis(a.AttemptedAt),
	)
	return err
}

func (r *loginAttemptsRepo) CountFailedLoginAttemptsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM login_attempts
		WHERE user_id = ? AND success = 0 AND attempted_at >= ?`,
		userID, millis(since),
	).Scan(&n)
	return n, err
}

func (r *loginAttemptsRepo) DeleteLoginAttemptsBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM login_attempts WHERE attempted_at < ?`, millis(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

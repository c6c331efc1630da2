package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/fricon/coreapi/internal/auth/domain"
)

type activityRepo struct {
	db dbtx
}

func (r *activityRepo) RecordActivity(ctx context.Context, e domain.ActivityEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_activity_log
			(user_id, action, entity, ip_address, user_agent, session_id, correlation_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		mapNullInt64(e.UserID), e.Action, e.Entity, e.IPAddress, e.UserAgent,
		e.SessionID, e.CorrelationID, millis(e.CreatedAt),
	)
	return err
}

func (r *activityRepo) ListUserActivity(ctx context.Context, userID int64, limit int) ([]domain.ActivityEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, action, entity, ip_address, user_agent, session_id, correlation_id, created_at
		FROM user_activity_log
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ActivityEntry
	for rows.Next() {
		var (
			e       domain.ActivityEntry
			uid     sql.NullInt64
			created int64
		)
		if err := rows.Scan(&e.ID, &uid, &e.Action, &e.Entity, &e.IPAddress, &e.UserAgent,
			&e.SessionID, &e.CorrelationID, &created); err != nil {
			return nil, err
		}
		e.UserID = uid.Int64
		e.CreatedAt = fromMillis(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *activityRepo) DeleteActivityBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_activity_log WHERE created_at < ?`, millis(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

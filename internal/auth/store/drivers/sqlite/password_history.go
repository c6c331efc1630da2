package sqlite

import (
	"context"
	"time"
)

type passwordHistoryRepo struct {
	db dbtx
}

func (r *passwordHistoryRepo) AppendPasswordHistory(ctx context.Context, userID int64, hash string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_password_history (user_id, password_hash, created_at) VALUES (?, ?, ?)`,
		userID, hash, millis(at),
	)
	return err
}

func (r *passwordHistoryRepo) ListRecentPasswordHashes(ctx context.Context, userID int64, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT password_hash FROM user_password_history
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}

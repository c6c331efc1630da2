package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/fricon/coreapi/internal/auth/domain"
	"github.com/fricon/coreapi/internal/auth/store"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, username, email, first_name, last_name, password_hash, locked,
	last_login_at, created_at, updated_at, deleted_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ? AND deleted_at IS NULL`, id)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = ? AND deleted_at IS NULL`, username)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? AND deleted_at IS NULL`, email)
}

func (r *usersRepo) getUser(ctx context.Context, query string, arg any) (domain.User, error) {
	var (
		u                    domain.User
		email, hash          sql.NullString
		locked               int
		lastLogin, deletedAt sql.NullInt64
		createdAt, updatedAt int64
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &email, &u.FirstName, &u.LastName, &hash, &locked,
		&lastLogin, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Email = mapNullString(email)
	u.PasswordHash = mapNullString(hash)
	u.Locked = locked != 0
	u.LastLoginAt = mapNullMillisPtr(lastLogin)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	u.DeletedAt = mapNullMillisPtr(deletedAt)

	u.Roles, err = listRoleNames(ctx, r.db, u.ID)
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	now := u.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, email, first_name, last_name, password_hash, locked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, mapStringNull(u.Email), u.FirstName, u.LastName,
		mapStringNull(u.PasswordHash), boolInt(u.Locked), millis(now), millis(now),
	)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return res.LastInsertId()
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID int64, hash string, now time.Time) error {
	return r.update(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		hash, millis(now), userID)
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	return r.update(ctx, `UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		millis(at), millis(at), userID)
}

func (r *usersRepo) LockUser(ctx context.Context, userID int64, now time.Time) error {
	return r.update(ctx, `UPDATE users SET locked = 1, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		millis(now), userID)
}

func (r *usersRepo) UnlockUser(ctx context.Context, userID int64, now time.Time) error {
	return r.update(ctx, `UPDATE users SET locked = 0, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		millis(now), userID)
}

func (r *usersRepo) SoftDeleteUser(ctx context.Context, userID int64, now time.Time) error {
	return r.update(ctx, `UPDATE users SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		millis(now), millis(now), userID)
}

// update runs a single-user mutation and maps "no row" to ErrNotFound.
func (r *usersRepo) update(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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

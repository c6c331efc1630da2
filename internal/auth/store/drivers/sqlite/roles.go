package sqlite

import (
	"context"
	"time"

	"github.com/fricon/coreapi/internal/auth/domain"
)

type rolesRepo struct {
	db dbtx
}

func (r *rolesRepo) CreateRole(ctx context.Context, role domain.Role) (int64, error) {
	created := role.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO roles (name, description, created_at) VALUES (?, ?, ?)`,
		role.Name, role.Description, millis(created),
	)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return res.LastInsertId()
}

func (r *rolesRepo) GetRoleByName(ctx context.Context, name string) (domain.Role, error) {
	var (
		role    domain.Role
		created int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM roles WHERE name = ?`, name,
	).Scan(&role.ID, &role.Name, &role.Description, &created)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	role.CreatedAt = fromMillis(created)
	return role, nil
}

func (r *rolesRepo) AssignRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_roles (user_id, role_id) VALUES (?, ?)`, userID, roleID,
	)
	return err
}

func (r *rolesRepo) ListUserRoleNames(ctx context.Context, userID int64) ([]string, error) {
	return listRoleNames(ctx, r.db, userID)
}

func listRoleNames(ctx context.Context, db dbtx, userID int64) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT r.name FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = ?
		ORDER BY r.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

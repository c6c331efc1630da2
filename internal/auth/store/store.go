package store

import (
	"context"
	"errors"
	"time"

	"github.com/fricon/coreapi/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and so a Tx-scoped store cannot open a nested transaction.
type Store interface {
	Users() Users
	Roles() Roles
	RefreshTokens() RefreshTokens
	Sessions() Sessions
	LoginAttempts() LoginAttempts
	PasswordHistory() PasswordHistory
	Activity() Activity

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Users is the user directory. Every read resolves role names eagerly and
// ignores soft-deleted users.
type Users interface {
	GetUserByID(ctx context.Context, id int64) (domain.User, error)

	// GetUserByUsername matches the username exactly.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail matches the email case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a user and returns its id. An empty PasswordHash
	// leaves the password unset.
	CreateUser(ctx context.Context, u domain.User) (int64, error)

	// UpdatePasswordHash replaces the password hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID int64, hash string, now time.Time) error

	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error

	LockUser(ctx context.Context, userID int64, now time.Time) error
	UnlockUser(ctx context.Context, userID int64, now time.Time) error

	// SoftDeleteUser sets deleted_at; the user disappears from lookups.
	SoftDeleteUser(ctx context.Context, userID int64, now time.Time) error
}

type Roles interface {
	CreateRole(ctx context.Context, r domain.Role) (int64, error)
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)
	AssignRole(ctx context.Context, userID, roleID int64) error
	ListUserRoleNames(ctx context.Context, userID int64) ([]string, error)
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token with the given fingerprint,
	// whatever its state.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshTokenIfActive revokes the token only if it is still
	// active at now. It reports whether this call performed the revocation.
	RevokeRefreshTokenIfActive(ctx context.Context, id string, now time.Time) (bool, error)

	// RevokeAllUserRefreshTokens revokes every non-revoked token of a user.
	RevokeAllUserRefreshTokens(ctx context.Context, userID int64, now time.Time) (int64, error)

	// DeleteStaleRefreshTokens deletes tokens expired at now and tokens
	// revoked before revokedBefore.
	DeleteStaleRefreshTokens(ctx context.Context, now, revokedBefore time.Time) (int64, error)

	RefreshTokenStats(ctx context.Context, now time.Time) (domain.RefreshTokenStats, error)
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.UserSession) error

	// GetActiveSession finds the non-revoked session of a user holding the
	// given refresh token fingerprint.
	GetActiveSession(ctx context.Context, userID int64, refreshHash string) (domain.UserSession, error)

	// RotateSession swaps in the refresh fingerprint and jti issued by a
	// refresh, keeping the previous jti for traceability.
	RotateSession(ctx context.Context, sessionID, refreshHash, jti, previousJTI string) error

	RevokeSession(ctx context.Context, sessionID string, now time.Time) (bool, error)
	RevokeAllUserSessions(ctx context.Context, userID int64, now time.Time) (int64, error)
}

type LoginAttempts interface {
	RecordLoginAttempt(ctx context.Context, a domain.LoginAttempt) error

	// CountFailedLoginAttemptsSince counts failures at or after since.
	CountFailedLoginAttemptsSince(ctx context.Context, userID int64, since time.Time) (int, error)

	DeleteLoginAttemptsBefore(ctx context.Context, before time.Time) (int64, error)
}

type PasswordHistory interface {
	AppendPasswordHistory(ctx context.Context, userID int64, hash string, at time.Time) error

	// ListRecentPasswordHashes returns up to limit hashes, newest first.
	ListRecentPasswordHashes(ctx context.Context, userID int64, limit int) ([]string, error)
}

type Activity interface {
	RecordActivity(ctx context.Context, e domain.ActivityEntry) error

	// ListUserActivity returns up to limit entries of a user, newest first.
	ListUserActivity(ctx context.Context, userID int64, limit int) ([]domain.ActivityEntry, error)

	DeleteActivityBefore(ctx context.Context, before time.Time) (int64, error)
}

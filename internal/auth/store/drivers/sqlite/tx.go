package sqlite

import (
	"context"
	"database/sql"

	"github.com/fricon/coreapi/internal/auth/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // nothing to close; caller will commit/rollback and outer DB stays open

// Ping is a no-op for transactions; the connection is held by the tx.
func (t *txStore) Ping(ctx context.Context) error {
	return nil
}

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Users() store.Users                     { return &usersRepo{db: t.tx} }
func (t *txStore) Roles() store.Roles                     { return &rolesRepo{db: t.tx} }
func (t *txStore) RefreshTokens() store.RefreshTokens     { return &refreshTokensRepo{db: t.tx} }
func (t *txStore) Sessions() store.Sessions               { return &sessionsRepo{db: t.tx} }
func (t *txStore) LoginAttempts() store.LoginAttempts     { return &loginAttemptsRepo{db: t.tx} }
func (t *txStore) PasswordHistory() store.PasswordHistory { return &passwordHistoryRepo{db: t.tx} }
func (t *txStore) Activity() store.Activity               { return &activityRepo{db: t.tx} }

func (t *txStore) ApplyMigrations() error { return nil } // no-op; migrations should be applied before starting a tx

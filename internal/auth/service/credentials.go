package service

import (
	"context"
	"errors"
	"strings"

	"github.com/fricon/coreapi/internal/auth/domain"
	"github.com/fricon/coreapi/internal/auth/store"
	"github.com/fricon/coreapi/pkg/cryptox"
	"github.com/fricon/coreapi/pkg/slogx"
)

// CredentialValidator checks an identifier and password against the user
// directory. Unknown users and wrong passwords both yield
// ErrInvalidCredentials.
type CredentialValidator struct {
	Users  store.Users
	Hasher *cryptox.PasswordHasher
	Ledger *Ledger
}

func (v *CredentialValidator) Validate(ctx context.Context, identifier, password, ip string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	u, err := v.lookup(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) {
		log.Warn("login attempt with unknown identifier")
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}

	if u.Locked {
		log.Warn("login attempt for locked user", "user_id", u.ID)
		return domain.User{}, ErrAccountLocked
	}
	if !u.HasPassword() {
		log.Warn("login attempt for user without password", "user_id", u.ID)
		return domain.User{}, ErrPasswordNotSet
	}

	if err := v.Hasher.Verify(password, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Error("stored password hash unusable", "user_id", u.ID, "err", err)
		}
		log.Warn("failed login attempt", "user_id", u.ID)

		v.Ledger.RecordAttempt(ctx, u.ID, false, domain.ActionInvalidPassword, ip)
		if _, err := v.Ledger.CheckAndLock(ctx, u.ID); err != nil {
			log.Error("lockout evaluation failed", "user_id", u.ID, "err", err)
		}
		return domain.User{}, ErrInvalidCredentials
	}

	return u, nil
}

// lookup tries the username, then the email when identifier looks like one.
func (v *CredentialValidator) lookup(ctx context.Context, identifier string) (domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return domain.User{}, store.ErrNotFound
	}

	u, err := v.Users.GetUserByUsername(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) && strings.Contains(identifier, "@") {
		return v.Users.GetUserByEmail(ctx, identifier)
	}
	return u, err
}

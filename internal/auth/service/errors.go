package service

import (
	"errors"
	"strings"
)

// ErrorKind is the closed set of failures the auth flows report.
type ErrorKind int

const (
	KindInvalidCredentials ErrorKind = iota + 1
	KindAccountLocked
	KindPasswordNotSet
	KindInvalidOrExpiredToken
	KindValidationFailed
	KindNotFound
)

// Code is the stable machine readable name of the kind.
func (k ErrorKind) Code() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindAccountLocked:
		return "account_locked"
	case KindPasswordNotSet:
		return "password_not_set"
	case KindInvalidOrExpiredToken:
		return "invalid_or_expired_token"
	case KindValidationFailed:
		return "validation_failed"
	case KindNotFound:
		return "not_found"
	default:
		return "internal_error"
	}
}

func (k ErrorKind) String() string { return k.Code() }

// AuthError is the only error type the auth flows return to callers besides
// infrastructure failures. Two AuthErrors match under errors.Is when their
// kinds are equal, so the sentinels below work with errors.Is.
type AuthError struct {
	Kind     ErrorKind
	Message  string
	Messages []string // itemised reasons, ValidationFailed only
}

func (e *AuthError) Error() string {
	if len(e.Messages) > 0 {
		return e.Message + ": " + strings.Join(e.Messages, "; ")
	}
	return e.Message
}

func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidCredentials    = &AuthError{Kind: KindInvalidCredentials, Message: "invalid credentials"}
	ErrAccountLocked         = &AuthError{Kind: KindAccountLocked, Message: "account is locked"}
	ErrPasswordNotSet        = &AuthError{Kind: KindPasswordNotSet, Message: "password not set, use the first password flow"}
	ErrInvalidOrExpiredToken = &AuthError{Kind: KindInvalidOrExpiredToken, Message: "invalid or expired refresh token"}
	ErrValidationFailed      = &AuthError{Kind: KindValidationFailed, Message: "validation failed"}
	ErrNotFound              = &AuthError{Kind: KindNotFound, Message: "user not found"}
)

func validationFailed(messages ...string) *AuthError {
	return &AuthError{Kind: KindValidationFailed, Message: ErrValidationFailed.Message, Messages: messages}
}

// KindOf extracts the kind of an AuthError anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return 0, false
}

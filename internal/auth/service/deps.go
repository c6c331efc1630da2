package service

import (
	"time"

	"github.com/fricon/coreapi/pkg/cryptox"
)

// Clock supplies the current time to every flow.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the wall clock in UTC.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })

// TokenGenerator produces opaque refresh token secrets.
type TokenGenerator interface {
	Generate() (string, error)
}

type randomTokens struct{}

func (randomTokens) Generate() (string, error) {
	return cryptox.GenerateToken(cryptox.TokenSize256)
}

// RandomTokens returns 256-bit secrets from crypto/rand.
func RandomTokens() TokenGenerator { return randomTokens{} }

package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := NewPasswordHasher("test-pepper")

	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"unicode password", "пароль🔒密码"},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$"))
			require.Len(t, strings.Split(hash, "$"), 6)

			require.NoError(t, h.Verify(tt.password, hash))
			require.ErrorIs(t, h.Verify(tt.password+"x", hash), ErrPasswordMismatch)
		})
	}
}

func TestHashIsSalted(t *testing.T) {
	h := NewPasswordHasher("")

	a, err := h.Hash("same-password")
	require.NoError(t, err)
	b, err := h.Hash("same-password")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestPepperIsApplied(t *testing.T) {
	hash, err := NewPasswordHasher("pepper-a").Hash("Secret1!")
	require.NoError(t, err)

	require.ErrorIs(t, NewPasswordHasher("pepper-b").Verify("Secret1!", hash), ErrPasswordMismatch)
}

func TestVerifyLegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	require.NoError(t, err)

	h := NewPasswordHasher("ignored-for-bcrypt")
	require.NoError(t, h.Verify("admin123", string(legacy)))
	require.ErrorIs(t, h.Verify("admin124", string(legacy)), ErrPasswordMismatch)
	require.True(t, h.NeedsRehash(string(legacy)))
}

func TestVerifyMalformed(t *testing.T) {
	h := NewPasswordHasher("")

	require.ErrorIs(t, h.Verify("x", "plaintext"), ErrUnknownHash)
	require.Error(t, h.Verify("x", "$argon2id$v=19$bad"))
	require.Error(t, h.Verify("x", "$argon2id$v=18$m=1,t=1,p=1$c2FsdA$aGFzaA"))
	require.Error(t, h.Verify("x", "$argon2id$v=19$m=1,t=1,p=1$!!!$aGFzaA"))
}

func TestLoadOrCreatePepper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets", "pepper")

	first, err := LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

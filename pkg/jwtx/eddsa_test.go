package jwtx_test

import (
	"testing"
	"time"

	"github.com/fricon/coreapi/pkg/cryptox"
	"github.com/fricon/coreapi/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestEdDSASignAndVerify(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerEdDSA("key-1", pemKey)
	require.NoError(t, err)
	require.Equal(t, "EdDSA", signer.Alg())
	require.Equal(t, "key-1", signer.KID())

	now := time.Now().UTC()
	claims := jwtx.NewAccessClaims(7, "maria", "maria@example.com", []string{"USER"}, jwtx.NewJTI(), exampleIssuer, 5*time.Minute, now)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	got, err := signer.Verifier(jwtx.VerifyOptions{Issuer: exampleIssuer}).Verify(token)
	require.NoError(t, err)
	require.Equal(t, "7", got.Subject)
	require.Equal(t, "maria", got.Username)
	require.Equal(t, []string{"USER"}, got.Roles)
	require.Equal(t, claims.ID, got.ID)
}

func TestEdDSAEphemeralKeysDiffer(t *testing.T) {
	a, err := jwtx.NewSignerEdDSA("a", nil)
	require.NoError(t, err)
	b, err := jwtx.NewSignerEdDSA("b", nil)
	require.NoError(t, err)

	token, err := a.Sign(jwtx.NewAccessClaims(1, "u", "", nil, jwtx.NewJTI(), exampleIssuer, time.Minute, time.Now()))
	require.NoError(t, err)

	_, err = b.Verifier(jwtx.VerifyOptions{}).Verify(token)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestNewSignerEdDSARejectsBadPEM(t *testing.T) {
	_, err := jwtx.NewSignerEdDSA("k", []byte("not pem"))
	require.Error(t, err)
}

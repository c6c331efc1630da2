package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer signs access token claims.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
}

// MinHMACSecretLength is the shortest accepted HS256 secret in bytes.
const MinHMACSecretLength = 32

// HS256Signer signs with a shared HMAC secret.
type HS256Signer struct {
	kid    string
	secret []byte
}

// NewSignerHS256 returns an HMAC-SHA256 signer.
func NewSignerHS256(kid string, secret []byte) (*HS256Signer, error) {
	if len(secret) < MinHMACSecretLength {
		return nil, fmt.Errorf("jwtx: hs256 secret must be at least %d bytes", MinHMACSecretLength)
	}
	return &HS256Signer{kid: kid, secret: secret}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }
func (s *HS256Signer) KID() string { return s.kid }

func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if s.kid != "" {
		t.Header["kid"] = s.kid
	}
	return t.SignedString(s.secret)
}

// Verifier returns a verifier accepting tokens from this signer.
func (s *HS256Signer) Verifier(opts VerifyOptions) Verifier {
	return newVerifier(jwt.SigningMethodHS256.Alg(), s.secret, opts)
}

// NewSigner builds a signer for alg. HS256 requires secret; EdDSA uses
// pemKey, or a freshly generated key when pemKey is empty.
func NewSigner(alg, kid string, secret, pemKey []byte) (Signer, Verifier, error) {
	return NewSignerWithOptions(alg, kid, secret, pemKey, VerifyOptions{})
}

// NewSignerWithOptions is NewSigner with explicit verification options for
// the returned verifier.
func NewSignerWithOptions(alg, kid string, secret, pemKey []byte, opts VerifyOptions) (Signer, Verifier, error) {
	switch alg {
	case "", jwt.SigningMethodHS256.Alg():
		s, err := NewSignerHS256(kid, secret)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Verifier(opts), nil
	case jwt.SigningMethodEdDSA.Alg():
		s, err := NewSignerEdDSA(kid, pemKey)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Verifier(opts), nil
	default:
		return nil, nil, errors.Join(ErrAlgMismatch, fmt.Errorf("unsupported algorithm %q", alg))
	}
}

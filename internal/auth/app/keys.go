package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fricon/coreapi/pkg/jwtx"
)

// InitSigner builds the access token signer and its verifier.
//
// Supported algorithms:
//   - HS256: shared secret from JWT_SECRET.
//   - EdDSA: PKCS8 PEM key from JWT_PRIVATE_KEY_FILE. Without a key file a
//     key is generated on startup and every token becomes invalid on restart.
func InitSigner(cfg Config, logger *slog.Logger) (jwtx.Signer, jwtx.Verifier, error) {
	alg := "HS256"
	if strings.EqualFold(cfg.Algorithm, "EdDSA") {
		alg = "EdDSA"
	}

	var pemKey []byte
	if alg == "EdDSA" {
		if cfg.PrivateKeyFile != "" {
			data, err := os.ReadFile(cfg.PrivateKeyFile)
			if err != nil {
				return nil, nil, fmt.Errorf("read private key: %w", err)
			}
			pemKey = data
		} else {
			logger.Warn("no JWT_PRIVATE_KEY_FILE set, generating an ephemeral signing key")
		}
	}

	signer, verifier, err := jwtx.NewSignerWithOptions(alg, "", []byte(cfg.Secret), pemKey, jwtx.VerifyOptions{
		Issuer: cfg.Issuer,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init %s signer: %w", alg, err)
	}

	logger.Info("access token signer ready", "algorithm", signer.Alg(), "issuer", cfg.Issuer)
	return signer, verifier, nil
}

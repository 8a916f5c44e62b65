package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/matrixstore/pkg/cryptox"
	"github.com/aussiebroadwan/matrixstore/pkg/jwtx"
)

// hs256SecretBytes is the entropy of a generated HS256 secret.
const hs256SecretBytes = 32

// InitKeys builds the KeyManager for the configured algorithm.
//
//   - EdDSA: NumKeys ephemeral keys generated on startup, or a single key
//     kept in SigningKeyFile when that is set. Public keys are served at
//     /.well-known/jwks.json.
//   - HS256: one shared secret read from TokenSecretFile, generated on
//     first start. Nothing is published.
func InitKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	opts := jwtx.KeyManagerOptions{
		Algorithm: cfg.Algorithm,
		Issuer:    cfg.Issuer,
		NumKeys:   cfg.NumKeys,
	}

	switch cfg.Algorithm {
	case jwtx.AlgorithmHS256:
		secret, err := cryptox.LoadOrCreateSecret(cfg.TokenSecretFile, hs256SecretBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to load token secret: %w", err)
		}
		opts.Secret = []byte(secret)
	default:
		opts.KeyFile = cfg.SigningKeyFile
	}

	km, err := jwtx.NewKeyManager(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize key manager: %w", err)
	}

	logger.Info("signing keys ready",
		"algorithm", km.Algorithm(),
		"num_keys", km.NumSigners(),
		"issuer", cfg.Issuer,
	)
	if km.Algorithm() == jwtx.AlgorithmEdDSA && cfg.SigningKeyFile == "" {
		logger.Warn("ephemeral signing keys: tokens issued before this start are now invalid")
	}

	return km, nil
}

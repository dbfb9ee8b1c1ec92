package service

import (
	"context"
	"encoding/base64"

	"gocloud.dev/secrets"

	"github.com/allisson/sessions/internal/config"
	apperrors "github.com/allisson/sessions/internal/errors"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// LoadSigningKey resolves the session signing key from configuration. A
// KMS-wrapped key takes precedence: the base64-encoded ciphertext is decrypted
// through the gocloud.dev secrets keeper identified by the key URI. Otherwise
// the plain key is used as-is.
func LoadSigningKey(ctx context.Context, cfg *config.Config) ([]byte, error) {
	if cfg.SessionSigningKeyWrapped != "" && cfg.KMSKeyURI != "" {
		ciphertext, err := base64.StdEncoding.DecodeString(cfg.SessionSigningKeyWrapped)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to decode wrapped signing key")
		}

		keeper, err := secrets.OpenKeeper(ctx, cfg.KMSKeyURI)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to open KMS keeper")
		}
		defer keeper.Close()

		signingKey, err := keeper.Decrypt(ctx, ciphertext)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to unwrap signing key")
		}
		return signingKey, nil
	}

	if cfg.SessionSigningKey == "" {
		return nil, config.ErrMissingSigningKey
	}
	return []byte(cfg.SessionSigningKey), nil
}

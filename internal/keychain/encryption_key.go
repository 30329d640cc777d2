package keychain

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"

	"git.home.luguber.info/inful/walletboot/internal/logfields"
)

// EncryptionKeySize is the length of the encrypted store key in bytes.
const EncryptionKeySize = 32

// EncryptionKeyProvider hands out the encrypted store key kept under AliasRealm,
// generating one on first use.
type EncryptionKeyProvider struct {
	Keychain Keychain
}

// EncryptionKey returns the stored key, creating and storing a new random
// key when none exists. A stored key of the wrong length is replaced.
func (e EncryptionKeyProvider) EncryptionKey(ctx context.Context) ([]byte, error) {
	key, err := e.Keychain.Get(ctx, AliasRealm)
	switch {
	case err == nil && len(key) == EncryptionKeySize:
		return key, nil
	case err == nil:
		slog.Warn("Replacing encryption key with unexpected length", logfields.Alias(AliasRealm), slog.Int("length", len(key)))
	case !errors.Is(err, ErrEntryNotFound):
		return nil, err
	}

	key = make([]byte, EncryptionKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, ErrUnavailable.Wrap(err).WithContext("alias", AliasRealm)
	}
	if err := e.Keychain.Set(ctx, AliasRealm, key); err != nil {
		return nil, err
	}
	slog.Info("Generated new encryption key", logfields.Alias(AliasRealm))
	return key, nil
}

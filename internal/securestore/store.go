// Package securestore is the encrypted persistent store holding wallet
// data. Values are sealed with XChaCha20-Poly1305 using a key obtained from
// a KeyProvider, normally the keychain.
package securestore

import (
	"context"

	"git.home.luguber.info/inful/walletboot/internal/foundation/errors"
)

// KeyProvider supplies the 32-byte store encryption key.
type KeyProvider interface {
	EncryptionKey(ctx context.Context) ([]byte, error)
}

// KeyProviderFunc adapts a function to KeyProvider.
type KeyProviderFunc func(ctx context.Context) ([]byte, error)

func (f KeyProviderFunc) EncryptionKey(ctx context.Context) ([]byte, error) { return f(ctx) }

// Store is the encrypted persistent store.
type Store interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// Reinitialise discards every stored value and reopens the store empty,
	// encrypted with the key currently returned by provider.
	Reinitialise(ctx context.Context, provider KeyProvider) error
	Close() error
}

var (
	ErrNotFound = errors.NewError(errors.CategoryNotFound, "secure store entry not found").Build()

	ErrClosed = errors.StorageError("secure store closed").Build()

	ErrDecrypt = errors.StorageError("secure store entry could not be decrypted").Build()

	ErrReinitialiseFailed = errors.StorageError("secure store reinitialisation failed").Build()

	ErrInvalidKey = errors.KeychainError("invalid secure store encryption key").Build()
)

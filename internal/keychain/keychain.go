// Package keychain is the secure credential store used at startup.
//
// Entries are addressed by fixed aliases. The recovery guard only asks
// whether an entry exists; the encrypted store reads its key from here.
package keychain

import (
	"context"
	"regexp"

	"git.home.luguber.info/inful/walletboot/internal/foundation/errors"
)

const (
	// AliasSalt holds the password salt written when the wallet is set up.
	AliasSalt = "salt"
	// AliasRealm holds the encryption key of the encrypted persistent store.
	AliasRealm = "realm_enc_key"
)

var (
	// ErrEntryNotFound signals that no entry exists for an alias.
	ErrEntryNotFound = errors.NewError(errors.CategoryNotFound, "keychain entry not found").Build()

	// ErrUnavailable signals that the credential store could not be read or written.
	ErrUnavailable = errors.KeychainError("keychain unavailable").Build()

	// ErrInvalidAlias signals an alias that cannot name an entry.
	ErrInvalidAlias = errors.ValidationError("invalid keychain alias").Build()
)

// Keychain stores secrets by alias.
type Keychain interface {
	HasEntry(ctx context.Context, alias string) (bool, error)
	Get(ctx context.Context, alias string) ([]byte, error)
	Set(ctx context.Context, alias string, value []byte) error
	Delete(ctx context.Context, alias string) error
}

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

func validateAlias(alias string) error {
	if !aliasPattern.MatchString(alias) {
		return ErrInvalidAlias.WithContext("alias", alias)
	}
	return nil
}

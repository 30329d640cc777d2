package keychain

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

// FSKeychain keeps one file per alias in a private directory.
//
//	keychain/
//	  salt
//	  realm_enc_key
type FSKeychain struct {
	dir string
	mu  sync.RWMutex
}

// NewFSKeychain creates dir (0700) if needed.
func NewFSKeychain(dir string) (*FSKeychain, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, ErrUnavailable.Wrap(err).WithContext("dir", dir)
	}
	return &FSKeychain{dir: dir}, nil
}

func (k *FSKeychain) path(alias string) string {
	return filepath.Join(k.dir, alias)
}

// HasEntry reports whether alias has an entry.
func (k *FSKeychain) HasEntry(ctx context.Context, alias string) (bool, error) {
	if err := validateAlias(alias); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, ErrUnavailable.Wrap(err)
	}
	k.mu.RLock()
	defer k.mu.RUnlock()

	_, err := os.Stat(k.path(alias))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, ErrUnavailable.Wrap(err).WithContext("alias", alias)
	}
}

// Get returns the secret stored under alias.
func (k *FSKeychain) Get(ctx context.Context, alias string) ([]byte, error) {
	if err := validateAlias(alias); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, ErrUnavailable.Wrap(err)
	}
	k.mu.RLock()
	defer k.mu.RUnlock()

	// #nosec G304 -- alias is validated against aliasPattern
	data, err := os.ReadFile(k.path(alias))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrEntryNotFound.WithContext("alias", alias)
		}
		return nil, ErrUnavailable.Wrap(err).WithContext("alias", alias)
	}
	return data, nil
}

// Set stores value under alias, replacing any previous entry atomically.
func (k *FSKeychain) Set(ctx context.Context, alias string, value []byte) error {
	if err := validateAlias(alias); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return ErrUnavailable.Wrap(err)
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	tmp, err := os.CreateTemp(k.dir, "."+alias+".tmp-*")
	if err != nil {
		return ErrUnavailable.Wrap(err).WithContext("alias", alias)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return ErrUnavailable.Wrap(err).WithContext("alias", alias)
	}
	if err := tmp.Close(); err != nil {
		return ErrUnavailable.Wrap(err).WithContext("alias", alias)
	}
	if err := os.Rename(tmpName, k.path(alias)); err != nil {
		return ErrUnavailable.Wrap(err).WithContext("alias", alias)
	}
	return nil
}

// Delete removes alias. Deleting a missing entry is not an error.
func (k *FSKeychain) Delete(ctx context.Context, alias string) error {
	if err := validateAlias(alias); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return ErrUnavailable.Wrap(err)
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := os.Remove(k.path(alias)); err != nil && !os.IsNotExist(err) {
		return ErrUnavailable.Wrap(err).WithContext("alias", alias)
	}
	return nil
}

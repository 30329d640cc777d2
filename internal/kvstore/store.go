// Package kvstore provides the string key-value store that app state is
// persisted to. Keys are opaque strings; values are JSON text written by
// the persist package.
package kvstore

import (
	"context"
	"sort"

	"git.home.luguber.info/inful/walletboot/internal/foundation/errors"
)

// Store is a flat key-value store with batch operations.
type Store interface {
	// AllKeys returns every key in the store, sorted.
	AllKeys(ctx context.Context) ([]string, error)
	// MultiGet returns the values of keys that exist. Missing keys are
	// absent from the result.
	MultiGet(ctx context.Context, keys []string) (map[string]string, error)
	MultiSet(ctx context.Context, pairs map[string]string) error
	// MultiRemove deletes keys. Missing keys are ignored.
	MultiRemove(ctx context.Context, keys []string) error
	Close() error
}

var (
	ErrClosed = errors.StorageError("key-value store closed").Build()

	ErrUnavailable = errors.StorageError("key-value store unavailable").Build()
)

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

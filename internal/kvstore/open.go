package kvstore

import (
	"context"

	"git.home.luguber.info/inful/walletboot/internal/config"
	"git.home.luguber.info/inful/walletboot/internal/foundation/errors"
)

// Open returns the backend selected by cfg.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.StorageSQLite:
		s, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageNATS:
		s, err := NewNATSStore(ctx, cfg.NATSURL, cfg.NATSBucket)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageMemory:
		return NewMemory(nil), nil
	default:
		return nil, errors.ConfigError("unknown storage backend").
			WithContext("backend", string(cfg.Backend)).
			Build()
	}
}

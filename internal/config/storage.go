package config

import "git.home.luguber.info/inful/walletboot/internal/foundation/normalization"

// StorageBackend selects the key-value store that holds persisted app state.
type StorageBackend string

const (
	StorageSQLite StorageBackend = "sqlite"
	StorageNATS   StorageBackend = "nats"
	StorageMemory StorageBackend = "memory"
)

var storageBackendNormalizer = normalization.NewNormalizer("storage backend", map[string]StorageBackend{
	"sqlite": StorageSQLite,
	"nats":   StorageNATS,
	"memory": StorageMemory,
}, StorageSQLite)

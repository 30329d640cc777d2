package startup

import (
	"context"
	stderrors "errors"
	"log/slog"
	"regexp"

	"git.home.luguber.info/inful/walletboot/internal/appstate"
	"git.home.luguber.info/inful/walletboot/internal/config"
	"git.home.luguber.info/inful/walletboot/internal/eventstore"
	"git.home.luguber.info/inful/walletboot/internal/foundation/errors"
	"git.home.luguber.info/inful/walletboot/internal/keychain"
	"git.home.luguber.info/inful/walletboot/internal/kvstore"
	"git.home.luguber.info/inful/walletboot/internal/manifest"
	"git.home.luguber.info/inful/walletboot/internal/metrics"
	"git.home.luguber.info/inful/walletboot/internal/migrationgate"
	"git.home.luguber.info/inful/walletboot/internal/persist"
	"git.home.luguber.info/inful/walletboot/internal/recovery"
	"git.home.luguber.info/inful/walletboot/internal/securestore"
	"git.home.luguber.info/inful/walletboot/internal/version"
	"git.home.luguber.info/inful/walletboot/internal/versiongate"
)

// RunningVersions returns the app version to record, preferring the
// configuration override over the build metadata.
func RunningVersions(app config.AppConfig) appstate.Versions {
	v := appstate.Versions{Version: version.Version, BuildNumber: version.Build()}
	if app.Version != "" {
		v.Version = app.Version
	}
	if app.BuildNumber > 0 {
		v.BuildNumber = app.BuildNumber
	}
	return v
}

// Stores holds the opened local stores.
type Stores struct {
	Keychain keychain.Keychain
	Secure   securestore.Store
	KV       kvstore.Store
	Journal  eventstore.Store
}

// Close closes every opened store.
func (s *Stores) Close() error {
	var errs []error
	if s.Secure != nil {
		errs = append(errs, s.Secure.Close())
	}
	if s.KV != nil {
		errs = append(errs, s.KV.Close())
	}
	if s.Journal != nil {
		errs = append(errs, s.Journal.Close())
	}
	return stderrors.Join(errs...)
}

// OpenJournal opens the run journal described by cfg.
func OpenJournal(cfg config.StorageConfig) (*eventstore.SQLiteStore, error) {
	path := cfg.JournalPath
	if cfg.Backend == config.StorageMemory {
		path = ":memory:"
	}
	return eventstore.NewSQLiteStore(path)
}

// OpenStores opens the keychain, the secure store and the key-value store
// described by cfg.
func OpenStores(ctx context.Context, cfg config.StorageConfig) (*Stores, error) {
	stores := &Stores{}

	if cfg.Backend == config.StorageMemory {
		stores.Keychain = keychain.NewMemory()
	} else {
		kc, err := keychain.NewFSKeychain(cfg.KeychainDir)
		if err != nil {
			return nil, err
		}
		stores.Keychain = kc
	}

	securePath := cfg.SecureStorePath
	if cfg.Backend == config.StorageMemory {
		securePath = securestore.MemoryPath
	}
	// Opened lazily: recovery must see the keychain before the store key
	// is generated.
	stores.Secure = securestore.New(securePath, keychain.EncryptionKeyProvider{Keychain: stores.Keychain})

	kv, err := kvstore.Open(ctx, cfg)
	if err != nil {
		_ = stores.Close()
		return nil, err
	}
	stores.KV = kv

	journal, err := OpenJournal(cfg)
	if err != nil {
		_ = stores.Close()
		return nil, err
	}
	stores.Journal = journal
	return stores, nil
}

// NewRunner builds a Runner over stores from cfg.
func NewRunner(cfg *config.Config, stores *Stores, recorder metrics.Recorder, logger *slog.Logger) (*Runner, error) {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	versions := RunningVersions(cfg.App)
	client := manifest.NewClient(cfg.Manifest)

	r := &Runner{
		Recovery: recovery.New(stores.Keychain, stores.Secure,
			recovery.WithVersions(versions),
			recovery.WithRecorder(recorder),
			recovery.WithLogger(logger)),
		Version: versiongate.New(client,
			versiongate.WithRecorder(recorder),
			versiongate.WithLogger(logger)),
		Persist: persist.New(stores.KV,
			persist.WithRecorder(recorder),
			persist.WithLogger(logger)),
		Journal:  stores.Journal,
		Versions: versions,
		Logger:   logger,
	}

	if cfg.Migration.IsEnabled() {
		pattern, err := regexp.Compile(cfg.Migration.SubdomainPattern)
		if err != nil {
			return nil, errors.ConfigError("invalid migration subdomain pattern").
				WithCause(err).
				WithContext("pattern", cfg.Migration.SubdomainPattern).
				Build()
		}
		r.Migration = migrationgate.New(client,
			migrationgate.WithPattern(pattern),
			migrationgate.WithRecorder(recorder),
			migrationgate.WithLogger(logger))
	}
	return r, nil
}

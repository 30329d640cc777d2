// Package recovery detects a credential store that was wiped while the
// app's data survived (for example after a device restore) and resets the
// wallet to a clean state.
//
// The decision matrix on the two keychain aliases:
//
//	salt present                  -> nothing to do
//	salt absent, realm present    -> nothing to do
//	salt absent, realm absent     -> reinitialise secure store, reset wallet,
//	                                 record app versions
//
// Unlike the remote gates, recovery fails closed: an unreadable keychain or
// a failed reinitialise is returned to the caller and nothing is dispatched.
package recovery

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/walletboot/internal/appstate"
	"git.home.luguber.info/inful/walletboot/internal/foundation/errors"
	"git.home.luguber.info/inful/walletboot/internal/keychain"
	"git.home.luguber.info/inful/walletboot/internal/logfields"
	"git.home.luguber.info/inful/walletboot/internal/metrics"
	"git.home.luguber.info/inful/walletboot/internal/securestore"
	"git.home.luguber.info/inful/walletboot/internal/version"
)

var (
	// ErrKeychainCheck wraps a failure to query the credential store.
	ErrKeychainCheck = errors.KeychainError("keychain presence check failed").Build()

	// ErrResetFailed wraps a failure to reinitialise the secure store.
	ErrResetFailed = errors.StorageError("wallet reset failed").Build()
)

// Guard runs the recovery check. It holds no per-run state.
type Guard struct {
	keychain keychain.Keychain
	secure   securestore.Store
	keys     securestore.KeyProvider
	versions appstate.Versions
	recorder metrics.Recorder
	logger   *slog.Logger
}

// Option customizes a Guard.
type Option func(*Guard)

// WithVersions overrides the version information recorded after a reset.
// By default the running binary's version and build number are used.
func WithVersions(v appstate.Versions) Option {
	return func(g *Guard) { g.versions = v }
}

// WithKeyProvider overrides where the reinitialised store gets its key.
func WithKeyProvider(p securestore.KeyProvider) Option {
	return func(g *Guard) { g.keys = p }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(g *Guard) { g.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) { g.logger = l }
}

// New returns a Guard. Unless overridden, the reinitialised store is keyed
// from kc under keychain.AliasRealm.
func New(kc keychain.Keychain, secure securestore.Store, opts ...Option) *Guard {
	g := &Guard{
		keychain: kc,
		secure:   secure,
		keys:     keychain.EncryptionKeyProvider{Keychain: kc},
		versions: appstate.Versions{Version: version.Version, BuildNumber: version.Build()},
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NeedsReset reports whether neither the salt nor the legacy realm key is
// present. The realm alias is only consulted when the salt is absent.
func (g *Guard) NeedsReset(ctx context.Context) (bool, error) {
	hasSalt, err := g.keychain.HasEntry(ctx, keychain.AliasSalt)
	if err != nil {
		return false, ErrKeychainCheck.Wrap(err).WithContext("alias", keychain.AliasSalt)
	}
	if hasSalt {
		return false, nil
	}

	hasRealm, err := g.keychain.HasEntry(ctx, keychain.AliasRealm)
	if err != nil {
		return false, ErrKeychainCheck.Wrap(err).WithContext("alias", keychain.AliasRealm)
	}
	return !hasRealm, nil
}

// Run performs the check and, when both aliases are missing, resets the
// wallet: the secure store is reinitialised first, then ResetWallet and
// SetAppVersions are dispatched in that order.
func (g *Guard) Run(ctx context.Context, store appstate.Store) error {
	reset, err := g.NeedsReset(ctx)
	if err != nil {
		g.logger.Error("Recovery check failed", logfields.Error(err))
		return err
	}
	if !reset {
		g.logger.Debug("Keychain intact, no recovery needed")
		return nil
	}

	g.logger.Warn("Keychain empty, resetting wallet",
		logfields.AppVersion(g.versions.Version),
		logfields.BuildNumber(g.versions.BuildNumber))

	if err := g.secure.Reinitialise(ctx, g.keys); err != nil {
		wrapped := ErrResetFailed.Wrap(err)
		g.logger.Error("Secure store reinitialise failed", logfields.Error(wrapped))
		return wrapped
	}

	store.Dispatch(appstate.ResetWallet())
	store.Dispatch(appstate.SetAppVersions(g.versions))
	g.recorder.IncRecoveryReset()

	g.logger.Info("Wallet reset complete",
		logfields.Action(string(appstate.ActionResetWallet)),
		logfields.AppVersion(g.versions.Version),
		logfields.BuildNumber(g.versions.BuildNumber))
	return nil
}

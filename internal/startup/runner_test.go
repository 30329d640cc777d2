package startup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/walletboot/internal/appstate"
	"git.home.luguber.info/inful/walletboot/internal/config"
	"git.home.luguber.info/inful/walletboot/internal/eventstore"
	"git.home.luguber.info/inful/walletboot/internal/keychain"
	"git.home.luguber.info/inful/walletboot/internal/kvstore"
	"git.home.luguber.info/inful/walletboot/internal/manifest"
	"git.home.luguber.info/inful/walletboot/internal/migrationgate"
	"git.home.luguber.info/inful/walletboot/internal/persist"
	"git.home.luguber.info/inful/walletboot/internal/recovery"
	"git.home.luguber.info/inful/walletboot/internal/securestore"
	"git.home.luguber.info/inful/walletboot/internal/versiongate"
)

var running = appstate.Versions{Version: "2.4.1", BuildNumber: 71}

type harness struct {
	kc     *keychain.Memory
	kv     *kvstore.Memory
	secure *securestore.SQLiteStore
	runner *Runner
}

func newHarness(t *testing.T, vm manifest.VersionManifest, migration manifest.MigrationStatus) *harness {
	t.Helper()
	kc := keychain.NewMemory()
	kv := kvstore.NewMemory(nil)
	secure := securestore.New(securestore.MemoryPath, keychain.EncryptionKeyProvider{Keychain: kc})
	t.Cleanup(func() { _ = secure.Close() })

	return &harness{
		kc:     kc,
		kv:     kv,
		secure: secure,
		runner: &Runner{
			Recovery: recovery.New(kc, secure, recovery.WithVersions(running)),
			Version: versiongate.New(manifest.VersionSourceFunc(func(context.Context) (manifest.VersionManifest, error) {
				return vm, nil
			})),
			Migration: migrationgate.New(manifest.MigrationSourceFunc(func(context.Context) (manifest.MigrationStatus, error) {
				return migration, nil
			})),
			Persist:  persist.New(kv),
			Versions: running,
		},
	}
}

func actionTypes(actions []appstate.Action) []appstate.ActionType {
	out := make([]appstate.ActionType, len(actions))
	for i, a := range actions {
		out[i] = a.Type
	}
	return out
}

func TestRun_FirstStartResetsThenChecks(t *testing.T) {
	h := newHarness(t, manifest.VersionManifest{Latest: 80}, manifest.MigrationStatus{Endpoint: "https://migration.iota.org"})

	report, err := h.runner.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)
	require.True(t, report.Reset)
	require.Equal(t, []appstate.ActionType{
		appstate.ActionResetWallet,
		appstate.ActionSetAppVersions,
		appstate.ActionShouldUpdate,
		appstate.ActionSeedMigrationAlert,
	}, actionTypes(report.Actions))

	require.Equal(t, running, report.State.Settings.Versions)
	require.True(t, report.State.Wallet.ShouldUpdate)
	require.Equal(t, "https://migration.iota.org", report.State.Wallet.SeedMigrationEndpoint)

	has, err := h.kc.HasEntry(context.Background(), keychain.AliasRealm)
	require.NoError(t, err)
	require.True(t, has, "reset generates a store key")

	persisted, err := persist.New(h.kv).Get(context.Background())
	require.NoError(t, err)
	require.Contains(t, persisted, appstate.SliceWallet)
	require.Contains(t, persisted, appstate.SliceSettings)
}

func TestRun_SecondStartKeepsState(t *testing.T) {
	h := newHarness(t, manifest.VersionManifest{Latest: 71}, manifest.MigrationStatus{})
	ctx := context.Background()

	_, err := h.runner.Run(ctx)
	require.NoError(t, err)

	report, err := h.runner.Run(ctx)
	require.NoError(t, err)
	require.False(t, report.Reset)
	require.Empty(t, report.Actions, "versions already recorded and build is current")
	require.Equal(t, running, report.State.Settings.Versions)
}

func TestRun_UpgradeRecordsNewVersions(t *testing.T) {
	h := newHarness(t, manifest.VersionManifest{Latest: 71}, manifest.MigrationStatus{})
	ctx := context.Background()
	require.NoError(t, h.kc.Set(ctx, keychain.AliasSalt, []byte("s")))
	require.NoError(t, persist.New(h.kv).Set(ctx, appstate.SliceSettings,
		appstate.Settings{Versions: appstate.Versions{Version: "2.3.0", BuildNumber: 60}}))

	report, err := h.runner.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, []appstate.ActionType{appstate.ActionSetAppVersions}, actionTypes(report.Actions))
	require.Equal(t, running, report.State.Settings.Versions)
}

func TestRun_GateFailuresDoNotAbort(t *testing.T) {
	h := newHarness(t, manifest.VersionManifest{}, manifest.MigrationStatus{})
	h.runner.Version = versiongate.New(manifest.VersionSourceFunc(func(context.Context) (manifest.VersionManifest, error) {
		return manifest.VersionManifest{}, manifest.ErrUnavailable
	}))
	h.runner.Migration = migrationgate.New(manifest.MigrationSourceFunc(func(context.Context) (manifest.MigrationStatus, error) {
		return manifest.MigrationStatus{}, manifest.ErrMalformed
	}))

	report, err := h.runner.Run(context.Background())
	require.NoError(t, err)
	require.True(t, report.Reset)
}

type brokenKeychain struct{ keychain.Keychain }

func (brokenKeychain) HasEntry(context.Context, string) (bool, error) {
	return false, keychain.ErrUnavailable
}

func TestRun_RecoveryFailureAborts(t *testing.T) {
	h := newHarness(t, manifest.VersionManifest{Latest: 99}, manifest.MigrationStatus{})
	h.runner.Recovery = recovery.New(brokenKeychain{}, h.secure)

	_, err := h.runner.Run(context.Background())
	require.ErrorIs(t, err, recovery.ErrKeychainCheck)

	keys, err := h.kv.AllKeys(context.Background())
	require.NoError(t, err)
	require.Empty(t, keys, "nothing is persisted after an aborted run")
}

func TestRun_PersistedCollisionAborts(t *testing.T) {
	h := newHarness(t, manifest.VersionManifest{}, manifest.MigrationStatus{})
	require.NoError(t, h.kv.MultiSet(context.Background(), map[string]string{
		"reduxPersist:wallet":   "{}",
		"x:reduxPersist:wallet": "{}",
	}))

	_, err := h.runner.Run(context.Background())
	require.True(t, errors.Is(err, persist.ErrLogicalKeyCollision))
}

func TestRun_NestedNamespaceKeySurvivesRepeatedRuns(t *testing.T) {
	h := newHarness(t, manifest.VersionManifest{Latest: 71}, manifest.MigrationStatus{})
	ctx := context.Background()
	require.NoError(t, h.kc.Set(ctx, keychain.AliasSalt, []byte("s")))
	require.NoError(t, h.kv.MultiSet(ctx, map[string]string{
		"persist:reduxPersist:wallet": `{"isDeprecated":false}`,
	}))

	for i := 0; i < 2; i++ {
		_, err := h.runner.Run(ctx)
		require.NoError(t, err, "run %d", i+1)
	}

	keys, err := h.kv.AllKeys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"persist:reduxPersist:wallet", "reduxPersist:settings"}, keys)
}

func TestRun_ResetRemovesUnmodelledSlices(t *testing.T) {
	h := newHarness(t, manifest.VersionManifest{Latest: 71}, manifest.MigrationStatus{})
	ctx := context.Background()
	require.NoError(t, h.kv.MultiSet(ctx, map[string]string{
		"reduxPersist:accounts": `{"seed":"OLD-ACCOUNT"}`,
		"other:bar":             `"kept"`,
	}))

	report, err := h.runner.Run(ctx)
	require.NoError(t, err)
	require.True(t, report.Reset)

	persisted, err := persist.New(h.kv).Get(ctx)
	require.NoError(t, err)
	require.NotContains(t, persisted, "accounts")
	require.Contains(t, persisted, appstate.SliceSettings)

	keys, err := h.kv.AllKeys(ctx)
	require.NoError(t, err)
	require.Contains(t, keys, "other:bar")
}

func TestRun_AlertsAreNotCarriedOver(t *testing.T) {
	h := newHarness(t, manifest.VersionManifest{}, manifest.MigrationStatus{})
	ctx := context.Background()
	vm := manifest.VersionManifest{Latest: 80}
	var fetchErr error
	h.runner.Version = versiongate.New(manifest.VersionSourceFunc(func(context.Context) (manifest.VersionManifest, error) {
		return vm, fetchErr
	}))

	report, err := h.runner.Run(ctx)
	require.NoError(t, err)
	require.True(t, report.State.Wallet.ShouldUpdate)

	upgraded := appstate.Versions{Version: "2.5.0", BuildNumber: 80}
	h.runner.Versions = upgraded
	report, err = h.runner.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, []appstate.ActionType{appstate.ActionSetAppVersions}, actionTypes(report.Actions))
	require.False(t, report.State.Wallet.ShouldUpdate)

	persisted, err := persist.New(h.kv).Get(ctx)
	require.NoError(t, err)
	require.Equal(t, false, persisted[appstate.SliceWallet].(map[string]any)["shouldUpdate"])

	vm = manifest.VersionManifest{Deprecated: true}
	_, err = h.runner.Run(ctx)
	require.NoError(t, err)
	fetchErr = manifest.ErrUnavailable
	report, err = h.runner.Run(ctx)
	require.NoError(t, err)
	require.Empty(t, report.Actions)
	require.False(t, report.State.Wallet.IsDeprecated, "a failed fetch reports no alert")
}

func TestRunningVersions(t *testing.T) {
	v := RunningVersions(config.AppConfig{Version: "9.9.9", BuildNumber: 999})
	require.Equal(t, appstate.Versions{Version: "9.9.9", BuildNumber: 999}, v)
}

func TestNewRunner_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/versions":
			assert.NoError(t, json.NewEncoder(w).Encode(manifest.VersionManifest{Blacklist: []int{5}, Latest: 10}))
		case "/seed-migration":
			assert.NoError(t, json.NewEncoder(w).Encode(manifest.MigrationStatus{Endpoint: "false"}))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Manifest.BaseURL = srv.URL
	cfg.Storage.Backend = config.StorageMemory
	cfg.App = config.AppConfig{Version: "1.0.0", BuildNumber: 5}

	ctx := context.Background()
	stores, err := OpenStores(ctx, cfg.Storage)
	require.NoError(t, err)
	defer stores.Close()

	runner, err := NewRunner(cfg, stores, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, runner.Migration)

	report, err := runner.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, []appstate.ActionType{
		appstate.ActionResetWallet,
		appstate.ActionSetAppVersions,
		appstate.ActionForceUpdate,
	}, actionTypes(report.Actions))
}

func TestNewRunner_MigrationSwitches(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	stores := &Stores{Keychain: keychain.NewMemory(), KV: kvstore.NewMemory(nil)}

	disabled := false
	cfg.Migration.Enabled = &disabled
	runner, err := NewRunner(cfg, stores, nil, nil)
	require.NoError(t, err)
	require.Nil(t, runner.Migration)
	require.NotNil(t, runner.Version)

	cfg.Migration.Enabled = nil
	cfg.Migration.SubdomainPattern = "("
	_, err = NewRunner(cfg, stores, nil, nil)
	require.Error(t, err)
}

func TestRun_WritesJournal(t *testing.T) {
	journal, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer journal.Close()
	ctx := context.Background()

	h := newHarness(t, manifest.VersionManifest{Deprecated: true}, manifest.MigrationStatus{})
	h.runner.Journal = journal
	ok, err := h.runner.Run(ctx)
	require.NoError(t, err)

	h.runner.Recovery = recovery.New(brokenKeychain{}, h.secure)
	_, err = h.runner.Run(ctx)
	require.Error(t, err)

	projection := eventstore.NewRunHistoryProjection(journal, 10)
	require.NoError(t, projection.Rebuild(ctx))
	history := projection.GetHistory()
	require.Len(t, history, 2)

	completed, found := projection.GetRun(ok.RunID)
	require.True(t, found)
	require.Equal(t, eventstore.RunStatusCompleted, completed.Status)
	require.True(t, completed.Reset)
	require.Equal(t, []string{
		string(appstate.ActionResetWallet),
		string(appstate.ActionSetAppVersions),
		string(appstate.ActionDeprecate),
	}, completed.Actions)
	require.Equal(t, running.BuildNumber, completed.BuildNumber)

	var failed eventstore.RunSummary
	for _, s := range history {
		if s.RunID != ok.RunID {
			failed = s
		}
	}
	require.Equal(t, eventstore.RunStatusFailed, failed.Status)
	require.Equal(t, "keychain", failed.ErrorCategory)
}

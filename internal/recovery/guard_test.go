package recovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/walletboot/internal/appstate"
	"git.home.luguber.info/inful/walletboot/internal/keychain"
	"git.home.luguber.info/inful/walletboot/internal/metrics"
	"git.home.luguber.info/inful/walletboot/internal/securestore"
)

type fakeSecureStore struct {
	securestore.Store
	reinitialised int
	err           error
}

func (f *fakeSecureStore) Reinitialise(context.Context, securestore.KeyProvider) error {
	f.reinitialised++
	return f.err
}

type failingKeychain struct {
	keychain.Keychain
	failOn string
}

func (f failingKeychain) HasEntry(ctx context.Context, alias string) (bool, error) {
	if alias == f.failOn {
		return false, keychain.ErrUnavailable
	}
	return f.Keychain.HasEntry(ctx, alias)
}

type resetCounter struct {
	metrics.NoopRecorder
	resets int
}

func (r *resetCounter) IncRecoveryReset() { r.resets++ }

var testVersions = appstate.Versions{Version: "2.4.1", BuildNumber: 71}

func seeded(t *testing.T, salt, realm bool) *keychain.Memory {
	t.Helper()
	kc := keychain.NewMemory()
	ctx := context.Background()
	if salt {
		require.NoError(t, kc.Set(ctx, keychain.AliasSalt, []byte("s")))
	}
	if realm {
		require.NoError(t, kc.Set(ctx, keychain.AliasRealm, []byte("r")))
	}
	return kc
}

func TestRun_PresenceMatrix(t *testing.T) {
	cases := []struct {
		name      string
		salt      bool
		realm     bool
		wantReset bool
	}{
		{"salt and realm present", true, true, false},
		{"salt only", true, false, false},
		{"realm only", false, true, false},
		{"both absent", false, false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			secure := &fakeSecureStore{}
			rec := &resetCounter{}
			guard := New(seeded(t, tc.salt, tc.realm), secure, WithVersions(testVersions), WithRecorder(rec))
			store := appstate.NewMemory(appstate.State{Wallet: appstate.Wallet{ShouldUpdate: true}})

			require.NoError(t, guard.Run(context.Background(), store))

			if !tc.wantReset {
				require.Zero(t, secure.reinitialised)
				require.Empty(t, store.Dispatched())
				require.Zero(t, rec.resets)
				return
			}

			require.Equal(t, 1, secure.reinitialised)
			require.Equal(t, []appstate.Action{
				appstate.ResetWallet(),
				appstate.SetAppVersions(testVersions),
			}, store.Dispatched())
			require.Equal(t, 1, rec.resets)

			snap := store.Snapshot()
			require.False(t, snap.Wallet.ShouldUpdate, "reset clears wallet flags")
			require.Equal(t, testVersions, snap.Settings.Versions)
		})
	}
}

func TestRun_RealmNotConsultedWhenSaltPresent(t *testing.T) {
	kc := failingKeychain{Keychain: seeded(t, true, false), failOn: keychain.AliasRealm}
	guard := New(kc, &fakeSecureStore{})
	require.NoError(t, guard.Run(context.Background(), appstate.NewMemory(appstate.State{})))
}

func TestRun_KeychainFailureFailsClosed(t *testing.T) {
	for _, alias := range []string{keychain.AliasSalt, keychain.AliasRealm} {
		t.Run(alias, func(t *testing.T) {
			secure := &fakeSecureStore{}
			kc := failingKeychain{Keychain: keychain.NewMemory(), failOn: alias}
			store := appstate.NewMemory(appstate.State{})

			err := New(kc, secure).Run(context.Background(), store)
			require.ErrorIs(t, err, ErrKeychainCheck)
			require.ErrorIs(t, err, keychain.ErrUnavailable)
			require.Zero(t, secure.reinitialised)
			require.Empty(t, store.Dispatched())
		})
	}
}

func TestRun_ReinitialiseFailureFailsClosed(t *testing.T) {
	cause := errors.New("disk full")
	secure := &fakeSecureStore{err: cause}
	store := appstate.NewMemory(appstate.State{})

	err := New(keychain.NewMemory(), secure).Run(context.Background(), store)
	require.ErrorIs(t, err, ErrResetFailed)
	require.ErrorIs(t, err, cause)
	require.Equal(t, 1, secure.reinitialised)
	require.Empty(t, store.Dispatched())
}

func TestRun_WithRealSecureStore(t *testing.T) {
	ctx := context.Background()
	kc := keychain.NewMemory()
	provider := keychain.EncryptionKeyProvider{Keychain: kc}

	secure, err := securestore.Open(ctx, securestore.MemoryPath, provider)
	require.NoError(t, err)
	defer secure.Close()
	require.NoError(t, secure.Put(ctx, "wallet", []byte("stale")))

	// Opening generated a realm key; drop it to simulate a wiped keychain.
	require.NoError(t, kc.Delete(ctx, keychain.AliasRealm))

	store := appstate.NewMemory(appstate.State{})
	require.NoError(t, New(kc, secure, WithVersions(testVersions)).Run(ctx, store))

	_, err = secure.Get(ctx, "wallet")
	require.ErrorIs(t, err, securestore.ErrNotFound)

	has, err := kc.HasEntry(ctx, keychain.AliasRealm)
	require.NoError(t, err)
	require.True(t, has, "reinitialise stores a fresh key")
	require.Len(t, store.Dispatched(), 2)
}

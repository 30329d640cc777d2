package appstate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReduce(t *testing.T) {
	s := Reduce(State{}, Deprecate())
	require.True(t, s.Wallet.IsDeprecated)

	s = Reduce(s, ForceUpdate())
	s = Reduce(s, ShouldUpdate())
	require.True(t, s.Wallet.ForceUpdate)
	require.True(t, s.Wallet.ShouldUpdate)

	s = Reduce(s, SeedMigrationAlert("migration.iota.org"))
	require.True(t, s.Wallet.DisplaySeedMigrationAlert)
	require.Equal(t, "migration.iota.org", s.Wallet.SeedMigrationEndpoint)

	s = Reduce(s, SetAppVersions(Versions{Version: "1.0.0", BuildNumber: 7}))
	require.Equal(t, Versions{Version: "1.0.0", BuildNumber: 7}, s.Settings.Versions)

	s = Reduce(s, ResetWallet())
	require.Equal(t, State{}, s)

	require.Equal(t, s, Reduce(s, Action{Type: "unknown"}))
}

func TestMemory_DispatchRecordsActions(t *testing.T) {
	m := NewMemory(State{Settings: Settings{Versions: Versions{BuildNumber: 5}}})
	m.Dispatch(ShouldUpdate())
	m.Dispatch(ResetWallet())

	require.Equal(t, []Action{ShouldUpdate(), ResetWallet()}, m.Dispatched())
	require.Equal(t, State{}, m.Snapshot())
}

func TestMemory_ConcurrentDispatch(t *testing.T) {
	m := NewMemory(State{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Dispatch(ShouldUpdate())
			_ = m.Snapshot()
		}()
	}
	wg.Wait()
	require.Len(t, m.Dispatched(), 50)
}

func TestMemory_HydrateAndSlices(t *testing.T) {
	m := NewMemory(State{})
	err := m.Hydrate(map[string]any{
		"settings": map[string]any{"versions": map[string]any{"version": "2.4.1", "buildNumber": float64(71)}},
		"wallet":   map[string]any{"forceUpdate": true},
		"accounts": map[string]any{"ignored": true},
	})
	require.NoError(t, err)

	s := m.Snapshot()
	require.Equal(t, 71, s.Settings.Versions.BuildNumber)
	require.Equal(t, "2.4.1", s.Settings.Versions.Version)
	require.True(t, s.Wallet.ForceUpdate)

	slices := m.Slices()
	require.Equal(t, s.Settings, slices[SliceSettings])
	require.Equal(t, s.Wallet, slices[SliceWallet])
}

func TestMemory_HydrateRejectsMalformedSlice(t *testing.T) {
	m := NewMemory(State{Settings: Settings{Versions: Versions{BuildNumber: 3}}})
	err := m.Hydrate(map[string]any{"settings": "not an object"})
	require.Error(t, err)
	require.Equal(t, 3, m.Snapshot().Settings.Versions.BuildNumber, "failed hydrate must not change state")
}

func TestMemory_ClearAlertsKeepsSettings(t *testing.T) {
	versions := Versions{Version: "2.4.1", BuildNumber: 71}
	m := NewMemory(State{
		Settings: Settings{Versions: versions},
		Wallet:   Wallet{ShouldUpdate: true, DisplaySeedMigrationAlert: true, SeedMigrationEndpoint: "https://migration.iota.org"},
	})

	m.ClearAlerts()

	require.Equal(t, State{Settings: Settings{Versions: versions}}, m.Snapshot())
	require.Empty(t, m.Dispatched())
}

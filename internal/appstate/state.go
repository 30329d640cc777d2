package appstate

// Versions is the app version recorded in settings.
type Versions struct {
	Version     string `json:"version"`
	BuildNumber int    `json:"buildNumber"`
}

// Settings holds the persisted settings slice.
type Settings struct {
	Versions Versions `json:"versions"`
}

// Wallet holds the flags that drive startup alerts.
type Wallet struct {
	IsDeprecated              bool   `json:"isDeprecated"`
	ForceUpdate               bool   `json:"forceUpdate"`
	ShouldUpdate              bool   `json:"shouldUpdate"`
	DisplaySeedMigrationAlert bool   `json:"displaySeedMigrationAlert"`
	SeedMigrationEndpoint     string `json:"seedMigrationEndpoint,omitempty"`
}

// State is the whole application state.
type State struct {
	Settings Settings `json:"settings"`
	Wallet   Wallet   `json:"wallet"`
}

// Slice names used when state is persisted.
const (
	SliceSettings = "settings"
	SliceWallet   = "wallet"
)

// Reduce applies a to s. Unknown actions leave s unchanged.
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionDeprecate:
		s.Wallet.IsDeprecated = true
	case ActionForceUpdate:
		s.Wallet.ForceUpdate = true
	case ActionShouldUpdate:
		s.Wallet.ShouldUpdate = true
	case ActionSeedMigrationAlert:
		endpoint, _ := a.Payload.(string)
		s.Wallet.DisplaySeedMigrationAlert = true
		s.Wallet.SeedMigrationEndpoint = endpoint
	case ActionResetWallet:
		s = State{}
	case ActionSetAppVersions:
		if v, ok := a.Payload.(Versions); ok {
			s.Settings.Versions = v
		}
	}
	return s
}

// ClearAlerts returns s without startup alerts. Alerts describe the latest
// manifest check only and are re-derived on every run.
func ClearAlerts(s State) State {
	s.Wallet = Wallet{}
	return s
}

package appstate

// ActionType names a state transition.
type ActionType string

const (
	ActionDeprecate          ActionType = "wallet/deprecate"
	ActionForceUpdate        ActionType = "wallet/force-update"
	ActionShouldUpdate       ActionType = "wallet/should-update"
	ActionSeedMigrationAlert ActionType = "wallet/seed-migration-alert"
	ActionResetWallet        ActionType = "settings/reset-wallet"
	ActionSetAppVersions     ActionType = "settings/set-app-versions"
)

// Action is a dispatched state transition. Payload is nil, a string
// endpoint, or a Versions value depending on Type.
type Action struct {
	Type    ActionType `json:"type"`
	Payload any        `json:"payload,omitempty"`
}

func Deprecate() Action    { return Action{Type: ActionDeprecate} }
func ForceUpdate() Action  { return Action{Type: ActionForceUpdate} }
func ShouldUpdate() Action { return Action{Type: ActionShouldUpdate} }
func ResetWallet() Action  { return Action{Type: ActionResetWallet} }

// SeedMigrationAlert asks the UI to announce the migration tool at endpoint.
func SeedMigrationAlert(endpoint string) Action {
	return Action{Type: ActionSeedMigrationAlert, Payload: endpoint}
}

// SetAppVersions records the running app version and build number.
func SetAppVersions(v Versions) Action {
	return Action{Type: ActionSetAppVersions, Payload: v}
}

package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID       = "run_id"
	KeyGate        = "gate"
	KeyAction      = "action"
	KeyOutcome     = "outcome"
	KeyBuildNumber = "build_number"
	KeyAppVersion  = "app_version"
	KeyAlias       = "alias"
	KeyKey         = "key"
	KeyKeys        = "keys"
	KeyEndpoint    = "endpoint"
	KeyURL         = "url"
	KeyBackend     = "backend"
	KeyPath        = "path"
	KeyAttempt     = "attempt"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Gate(name string) slog.Attr       { return slog.String(KeyGate, name) }
func Action(t string) slog.Attr        { return slog.String(KeyAction, t) }
func Outcome(o string) slog.Attr       { return slog.String(KeyOutcome, o) }
func BuildNumber(n int) slog.Attr      { return slog.Int(KeyBuildNumber, n) }
func AppVersion(v string) slog.Attr    { return slog.String(KeyAppVersion, v) }
func Alias(a string) slog.Attr         { return slog.String(KeyAlias, a) }
func Key(k string) slog.Attr           { return slog.String(KeyKey, k) }
func Keys(n int) slog.Attr             { return slog.Int(KeyKeys, n) }
func Endpoint(e string) slog.Attr      { return slog.String(KeyEndpoint, e) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Backend(b string) slog.Attr       { return slog.String(KeyBackend, b) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Attempt(n int) slog.Attr          { return slog.Int(KeyAttempt, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

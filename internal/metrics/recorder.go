package metrics

import "time"

// Outcome labels a single gate evaluation.
type Outcome string

const (
	OutcomeNone         Outcome = "none"
	OutcomeDeprecate    Outcome = "deprecate"
	OutcomeForceUpdate  Outcome = "force_update"
	OutcomeShouldUpdate Outcome = "should_update"
	OutcomeAlert        Outcome = "alert"
	OutcomeFetchFailed  Outcome = "fetch_failed"
)

// Recorder defines observability hooks for startup checks.
type Recorder interface {
	IncGateOutcome(gate string, outcome Outcome)
	ObserveGateDuration(gate string, d time.Duration)
	IncRecoveryReset()
	SetPersistedKeys(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncGateOutcome(string, Outcome)            {}
func (NoopRecorder) ObserveGateDuration(string, time.Duration) {}
func (NoopRecorder) IncRecoveryReset()                         {}
func (NoopRecorder) SetPersistedKeys(int)                      {}

package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/walletboot/internal/appstate"
	"git.home.luguber.info/inful/walletboot/internal/foundation/errors"
)

// Journal event types.
const (
	TypeRunStarted       = "RunStarted"
	TypeActionDispatched = "ActionDispatched"
	TypeRunCompleted     = "RunCompleted"
	TypeRunFailed        = "RunFailed"
)

func newEvent(runID, eventType string, body any) (*BaseEvent, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, ErrMarshalPayloadFailed.Wrap(err).
			WithContext("run_id", runID).
			WithContext("type", eventType)
	}
	return &BaseEvent{
		EventRunID:     runID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   payload,
	}, nil
}

// NewRunStarted records the app version a run starts with.
func NewRunStarted(runID string, versions appstate.Versions) (Event, error) {
	return newEvent(runID, TypeRunStarted, versions)
}

// NewActionDispatched records one dispatched state action.
func NewActionDispatched(runID string, action appstate.Action) (Event, error) {
	return newEvent(runID, TypeActionDispatched, action)
}

// NewRunCompleted records a run that finished, and whether it reset the wallet.
func NewRunCompleted(runID string, reset bool, duration time.Duration) (Event, error) {
	return newEvent(runID, TypeRunCompleted, map[string]any{
		"reset":       reset,
		"duration_ms": duration.Milliseconds(),
	})
}

// NewRunFailed records a run aborted by err.
func NewRunFailed(runID string, err error) (Event, error) {
	body := map[string]string{"error": err.Error()}
	if classified, ok := errors.AsClassified(err); ok {
		body["category"] = string(classified.Category())
	}
	return newEvent(runID, TypeRunFailed, body)
}

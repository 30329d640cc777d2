package eventstore

import (
	"errors"
	"testing"
	"time"

	"git.home.luguber.info/inful/walletboot/internal/appstate"
	ferrors "git.home.luguber.info/inful/walletboot/internal/foundation/errors"
)

func mustEvent(t *testing.T) func(Event, error) Event {
	return func(e Event, err error) Event {
		t.Helper()
		if err != nil {
			t.Fatalf("build event: %v", err)
		}
		return e
	}
}

func at(e Event, ts time.Time) Event {
	be := e.(*BaseEvent)
	be.EventTimestamp = ts
	return be
}

func TestRunHistoryProjection_Rebuild(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()
	start := time.Now().Add(-time.Minute).Truncate(time.Millisecond)

	events := []Event{
		at(mustEvent(t)(NewRunStarted("a", appstate.Versions{Version: "2.4.1", BuildNumber: 71})), start),
		at(mustEvent(t)(NewActionDispatched("a", appstate.ResetWallet())), start),
		at(mustEvent(t)(NewActionDispatched("a", appstate.SetAppVersions(appstate.Versions{Version: "2.4.1", BuildNumber: 71}))), start),
		at(mustEvent(t)(NewRunCompleted("a", true, 2*time.Second)), start.Add(2*time.Second)),
		at(mustEvent(t)(NewRunStarted("b", appstate.Versions{Version: "2.4.1", BuildNumber: 71})), start.Add(10*time.Second)),
		at(mustEvent(t)(NewRunFailed("b", ferrors.KeychainError("keychain unavailable").Build())), start.Add(11*time.Second)),
		at(mustEvent(t)(NewRunStarted("c", appstate.Versions{})), start.Add(20*time.Second)),
	}
	for _, e := range events {
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	p := NewRunHistoryProjection(store, 10)
	if err := p.Rebuild(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	history := p.GetHistory()
	if len(history) != 2 {
		t.Fatalf("expected 2 finished runs, got %d", len(history))
	}
	if history[0].RunID != "b" || history[1].RunID != "a" {
		t.Fatalf("expected newest first, got %s, %s", history[0].RunID, history[1].RunID)
	}

	a := history[1]
	if a.Status != RunStatusCompleted || !a.Reset {
		t.Errorf("run a: status=%s reset=%v", a.Status, a.Reset)
	}
	if a.Duration != 2*time.Second {
		t.Errorf("run a: duration %v", a.Duration)
	}
	if len(a.Actions) != 2 || a.Actions[0] != string(appstate.ActionResetWallet) {
		t.Errorf("run a: actions %v", a.Actions)
	}
	if a.AppVersion != "2.4.1" || a.BuildNumber != 71 {
		t.Errorf("run a: version %s build %d", a.AppVersion, a.BuildNumber)
	}

	b := history[0]
	if b.Status != RunStatusFailed || b.ErrorCategory != string(ferrors.CategoryKeychain) {
		t.Errorf("run b: status=%s category=%s", b.Status, b.ErrorCategory)
	}

	c, ok := p.GetRun("c")
	if !ok || c.Status != RunStatusRunning {
		t.Errorf("run c should be running, got %+v", c)
	}
}

func TestRunHistoryProjection_BoundedHistory(t *testing.T) {
	p := NewRunHistoryProjection(newMemoryStore(t), 2)
	base := time.Now()
	for i, id := range []string{"r1", "r2", "r3"} {
		p.Apply(at(mustEvent(t)(NewRunStarted(id, appstate.Versions{})), base.Add(time.Duration(i)*time.Second)))
		p.Apply(at(mustEvent(t)(NewRunCompleted(id, false, 0)), base.Add(time.Duration(i)*time.Second)))
	}

	history := p.GetHistory()
	if len(history) != 2 || history[0].RunID != "r3" || history[1].RunID != "r2" {
		t.Fatalf("unexpected history %+v", history)
	}
	if _, ok := p.GetRun("r1"); ok {
		t.Error("dropped runs should be pruned")
	}
}

func TestNewRunFailed_PlainError(t *testing.T) {
	e := mustEvent(t)(NewRunFailed("x", errors.New("boom")))
	p := NewRunHistoryProjection(newMemoryStore(t), 1)
	p.Apply(e)
	s, _ := p.GetRun("x")
	if s.ErrorMessage != "boom" || s.ErrorCategory != "" {
		t.Errorf("unexpected summary %+v", s)
	}
}

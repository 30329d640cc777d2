// Package startup runs the checks performed when the wallet starts, in
// order: recovery (fail-closed), then the version and migration gates
// (fail-open). Persisted state is loaded before the checks and written back
// after them. Alerts are not carried between runs: each run reports only
// what its own gates decided.
package startup

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/walletboot/internal/appstate"
	"git.home.luguber.info/inful/walletboot/internal/eventstore"
	"git.home.luguber.info/inful/walletboot/internal/logfields"
	"git.home.luguber.info/inful/walletboot/internal/migrationgate"
	"git.home.luguber.info/inful/walletboot/internal/persist"
	"git.home.luguber.info/inful/walletboot/internal/recovery"
	"git.home.luguber.info/inful/walletboot/internal/versiongate"
)

// Report summarises one run.
type Report struct {
	RunID    string            `json:"run_id"`
	Reset    bool              `json:"reset"`
	Actions  []appstate.Action `json:"actions"`
	State    appstate.State    `json:"state"`
	Duration time.Duration     `json:"duration"`
}

// Runner wires the checks together. Any component may be nil and is then
// skipped.
type Runner struct {
	Recovery  *recovery.Guard
	Version   *versiongate.Gate
	Migration *migrationgate.Gate
	Persist   *persist.Adapter
	// Journal, when set, receives one event per run phase. Journal write
	// failures are logged and do not fail the run.
	Journal eventstore.Store
	// Versions is the running app version. When it differs from the
	// persisted one it is recorded before the gates run.
	Versions appstate.Versions
	Logger   *slog.Logger
}

// Run executes one startup pass. A recovery or persistence failure aborts
// the run and nothing is written back.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	report := Report{RunID: uuid.NewString()}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(logfields.RunID(report.RunID))

	r.journal(ctx, logger, func() (eventstore.Event, error) {
		return eventstore.NewRunStarted(report.RunID, r.Versions)
	})

	store := appstate.NewMemory(appstate.State{})
	if err := r.run(ctx, logger, store); err != nil {
		r.journalActions(ctx, logger, report.RunID, store.Dispatched())
		r.journal(ctx, logger, func() (eventstore.Event, error) {
			return eventstore.NewRunFailed(report.RunID, err)
		})
		return report, err
	}

	report.Actions = store.Dispatched()
	report.Reset = dispatchedReset(report.Actions)
	report.State = store.Snapshot()
	report.Duration = time.Since(start)

	r.journalActions(ctx, logger, report.RunID, report.Actions)
	r.journal(ctx, logger, func() (eventstore.Event, error) {
		return eventstore.NewRunCompleted(report.RunID, report.Reset, report.Duration)
	})

	logger.Info("Startup checks complete",
		slog.Int("actions", len(report.Actions)),
		slog.Bool("reset", report.Reset),
		logfields.DurationMS(float64(report.Duration)/float64(time.Millisecond)))
	return report, nil
}

func (r *Runner) run(ctx context.Context, logger *slog.Logger, store *appstate.Memory) error {
	if r.Persist != nil {
		persisted, err := r.Persist.Get(ctx)
		if err != nil {
			logger.Error("Failed to load persisted state", logfields.Error(err))
			return err
		}
		if err := store.Hydrate(persisted); err != nil {
			logger.Error("Persisted state does not match app state", logfields.Error(err))
			return err
		}
	}

	if r.Recovery != nil {
		if err := r.Recovery.Run(ctx, store); err != nil {
			return err
		}
	}

	if r.Versions != (appstate.Versions{}) && store.Snapshot().Settings.Versions != r.Versions {
		store.Dispatch(appstate.SetAppVersions(r.Versions))
	}

	store.ClearAlerts()
	if r.Version != nil {
		r.Version.Check(ctx, store)
	}
	if r.Migration != nil {
		r.Migration.Check(ctx, store)
	}

	if r.Persist != nil {
		// A reset wipes every persisted slice, including ones this state
		// does not model.
		if dispatchedReset(store.Dispatched()) {
			if err := r.Persist.Clear(ctx); err != nil {
				logger.Error("Failed to clear persisted state after reset", logfields.Error(err))
				return err
			}
		}
		if err := r.Persist.SetAll(ctx, store.Slices()); err != nil {
			logger.Error("Failed to persist state", logfields.Error(err))
			return err
		}
	}
	return nil
}

func dispatchedReset(actions []appstate.Action) bool {
	for _, a := range actions {
		if a.Type == appstate.ActionResetWallet {
			return true
		}
	}
	return false
}

func (r *Runner) journalActions(ctx context.Context, logger *slog.Logger, runID string, actions []appstate.Action) {
	for _, a := range actions {
		r.journal(ctx, logger, func() (eventstore.Event, error) {
			return eventstore.NewActionDispatched(runID, a)
		})
	}
}

func (r *Runner) journal(ctx context.Context, logger *slog.Logger, build func() (eventstore.Event, error)) {
	if r.Journal == nil {
		return
	}
	event, err := build()
	if err == nil {
		err = r.Journal.Append(ctx, event)
	}
	if err != nil {
		logger.Warn("Failed to write run journal", logfields.Error(err))
	}
}

// Package versiongate compares the running build against the remote version
// manifest and raises at most one update notification.
package versiongate

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/walletboot/internal/appstate"
	"git.home.luguber.info/inful/walletboot/internal/logfields"
	"git.home.luguber.info/inful/walletboot/internal/manifest"
	"git.home.luguber.info/inful/walletboot/internal/metrics"
)

// Name identifies the gate in logs and metrics.
const Name = "version"

// Gate is stateless between calls; one Gate may be shared.
type Gate struct {
	source   manifest.VersionSource
	recorder metrics.Recorder
	logger   *slog.Logger
}

// Option customizes a Gate.
type Option func(*Gate)

func WithRecorder(r metrics.Recorder) Option {
	return func(g *Gate) { g.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) { g.logger = l }
}

// New returns a Gate reading manifests from source.
func New(source manifest.VersionSource, opts ...Option) *Gate {
	g := &Gate{source: source, recorder: metrics.NoopRecorder{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Decide picks the notification for build under m, in priority order
// deprecate, force update, should update. ok is false when none applies.
func Decide(m manifest.VersionManifest, build int) (appstate.Action, bool) {
	switch {
	case m.Deprecated:
		return appstate.Deprecate(), true
	case m.IsBlacklisted(build):
		return appstate.ForceUpdate(), true
	case m.Latest > build:
		return appstate.ShouldUpdate(), true
	default:
		return appstate.Action{}, false
	}
}

// Check fetches the manifest and dispatches the decided notification. Fetch
// errors are logged and dropped: the returned store is always store itself.
func (g *Gate) Check(ctx context.Context, store appstate.Store) appstate.Store {
	start := time.Now()
	defer func() { g.recorder.ObserveGateDuration(Name, time.Since(start)) }()

	build := store.Snapshot().Settings.Versions.BuildNumber
	m, err := g.source.FetchVersions(ctx)
	if err != nil {
		g.recorder.IncGateOutcome(Name, metrics.OutcomeFetchFailed)
		g.logger.Warn("Version manifest unavailable, skipping version check",
			logfields.Gate(Name),
			logfields.BuildNumber(build),
			logfields.Error(err))
		return store
	}

	action, ok := Decide(m, build)
	if !ok {
		g.recorder.IncGateOutcome(Name, metrics.OutcomeNone)
		g.logger.Debug("Build is current",
			logfields.Gate(Name),
			logfields.BuildNumber(build),
			slog.Int("latest", m.Latest))
		return store
	}

	store.Dispatch(action)
	g.recorder.IncGateOutcome(Name, outcomeFor(action.Type))
	g.logger.Info("Dispatched version notification",
		logfields.Gate(Name),
		logfields.Action(string(action.Type)),
		logfields.BuildNumber(build),
		slog.Int("latest", m.Latest))
	return store
}

func outcomeFor(t appstate.ActionType) metrics.Outcome {
	switch t {
	case appstate.ActionDeprecate:
		return metrics.OutcomeDeprecate
	case appstate.ActionForceUpdate:
		return metrics.OutcomeForceUpdate
	default:
		return metrics.OutcomeShouldUpdate
	}
}

// Package migrationgate announces the temporary seed migration tool.
//
// It is independent of versiongate and can be removed together with its
// configuration section once the migration period ends.
package migrationgate

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/idna"

	"git.home.luguber.info/inful/walletboot/internal/appstate"
	"git.home.luguber.info/inful/walletboot/internal/config"
	"git.home.luguber.info/inful/walletboot/internal/logfields"
	"git.home.luguber.info/inful/walletboot/internal/manifest"
	"git.home.luguber.info/inful/walletboot/internal/metrics"
)

// Name identifies the gate in logs and metrics.
const Name = "migration"

// Gate is stateless between calls.
type Gate struct {
	source   manifest.MigrationSource
	pattern  *regexp.Regexp
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

// WithPattern replaces the default subdomain pattern.
func WithPattern(re *regexp.Regexp) Option {
	return func(g *Gate) { g.pattern = re }
}

var defaultPattern = regexp.MustCompile(config.DefaultSubdomainPattern)

// New returns a Gate reading migration status from source.
func New(source manifest.MigrationSource, opts ...Option) *Gate {
	g := &Gate{
		source:   source,
		pattern:  defaultPattern,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Valid reports whether endpoint names an acceptable migration host: it must
// match the subdomain pattern and be a valid IDNA lookup name.
func (g *Gate) Valid(endpoint string) bool {
	if endpoint == "" || !g.pattern.MatchString(endpoint) {
		return false
	}
	host := strings.TrimPrefix(endpoint, "https://")
	host = strings.TrimSuffix(host, "/")
	if _, err := idna.Lookup.ToASCII(host); err != nil {
		return false
	}
	return true
}

// Check fetches the migration status and dispatches a migration alert when
// the advertised endpoint is valid. Fetch errors are logged and dropped.
func (g *Gate) Check(ctx context.Context, store appstate.Store) appstate.Store {
	start := time.Now()
	defer func() { g.recorder.ObserveGateDuration(Name, time.Since(start)) }()

	status, err := g.source.FetchMigrationStatus(ctx)
	if err != nil {
		g.recorder.IncGateOutcome(Name, metrics.OutcomeFetchFailed)
		g.logger.Warn("Migration status unavailable, skipping migration check",
			logfields.Gate(Name),
			logfields.Error(err))
		return store
	}

	if !g.Valid(status.Endpoint) {
		g.recorder.IncGateOutcome(Name, metrics.OutcomeNone)
		g.logger.Debug("Migration tool not advertised",
			logfields.Gate(Name),
			logfields.Endpoint(status.Endpoint))
		return store
	}

	store.Dispatch(appstate.SeedMigrationAlert(status.Endpoint))
	g.recorder.IncGateOutcome(Name, metrics.OutcomeAlert)
	g.logger.Info("Dispatched migration alert",
		logfields.Gate(Name),
		logfields.Action(string(appstate.ActionSeedMigrationAlert)),
		logfields.Endpoint(status.Endpoint))
	return store
}

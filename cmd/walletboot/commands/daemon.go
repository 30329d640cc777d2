package commands

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/walletboot/internal/config"
	"git.home.luguber.info/inful/walletboot/internal/foundation/errors"
	"git.home.luguber.info/inful/walletboot/internal/logfields"
	"git.home.luguber.info/inful/walletboot/internal/metrics"
	"git.home.luguber.info/inful/walletboot/internal/scheduler"
	"git.home.luguber.info/inful/walletboot/internal/startup"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Interval    time.Duration `help:"Time between checks (overrides daemon.interval)"`
	Schedule    string        `help:"Cron expression for checks (overrides daemon.schedule)"`
	MetricsAddr string        `name:"metrics-addr" help:"Metrics listen address (overrides daemon.metrics_addr)"`
}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if d.Interval > 0 {
		cfg.Daemon.Interval = d.Interval
		cfg.Daemon.Schedule = ""
	}
	if d.Schedule != "" {
		cfg.Daemon.Schedule = d.Schedule
	}
	if d.MetricsAddr != "" {
		cfg.Daemon.MetricsAddr = d.MetricsAddr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunDaemon(ctx, cfg)
}

// RunDaemon runs the checks on cfg.Daemon.Schedule, or every
// cfg.Daemon.Interval when no schedule is set, until ctx is done.
func RunDaemon(ctx context.Context, cfg *config.Config) error {
	slog.Info("Starting daemon mode",
		slog.Duration("interval", cfg.Daemon.Interval),
		slog.String("schedule", cfg.Daemon.Schedule),
		slog.String("metrics_addr", cfg.Daemon.MetricsAddr))

	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusRecorder(reg)

	stores, err := startup.OpenStores(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() { _ = stores.Close() }()

	runner, err := startup.NewRunner(cfg, stores, recorder, slog.Default())
	if err != nil {
		return err
	}

	sched, err := scheduler.New()
	if err != nil {
		return err
	}
	task := func(ctx context.Context) {
		if _, err := runner.Run(ctx); err != nil {
			slog.Error("Scheduled startup checks failed", logfields.Error(err))
		}
	}
	if cfg.Daemon.Schedule != "" {
		_, err = sched.ScheduleCron(ctx, "startup-checks", cfg.Daemon.Schedule, task)
	} else {
		_, err = sched.ScheduleEvery(ctx, "startup-checks", cfg.Daemon.Interval, task)
	}
	if err != nil {
		if stopErr := sched.Stop(); stopErr != nil {
			slog.Warn("Scheduler shutdown failed", logfields.Error(stopErr))
		}
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	srv := &http.Server{
		Addr:              cfg.Daemon.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- errors.RuntimeError("metrics server failed").
				WithCause(err).
				WithContext("addr", cfg.Daemon.MetricsAddr).
				Build()
		}
	}()

	sched.Start()
	slog.Info("Daemon started, waiting for shutdown signal...")

	var runErr error
	select {
	case runErr = <-errChan:
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping daemon...")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := srv.Shutdown(stopCtx); err != nil {
		slog.Warn("Metrics server shutdown failed", logfields.Error(err))
	}
	if err := sched.Stop(); err != nil {
		slog.Warn("Scheduler shutdown failed", logfields.Error(err))
	}

	if runErr == nil {
		slog.Info("Daemon stopped successfully")
	}
	return runErr
}

// Package scheduler runs startup checks periodically in daemon mode.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/walletboot/internal/foundation/errors"
)

// Scheduler wraps a gocron scheduler. Jobs never overlap with themselves:
// a run still in progress when the next one is due causes that run to be
// skipped.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// New creates a stopped scheduler.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.RuntimeError("create scheduler").WithCause(err).Build()
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler", slog.Int("jobs", len(s.scheduler.Jobs())))
	s.scheduler.Start()
}

// Stop waits for running jobs and shuts the scheduler down. It is safe to
// call on a scheduler that was never started.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleEvery runs task every interval, first run immediately on Start.
// task receives ctx so it can stop early on shutdown.
func (s *Scheduler) ScheduleEvery(ctx context.Context, name string, interval time.Duration, task func(context.Context)) (string, error) {
	if interval <= 0 {
		return "", errors.ValidationError("schedule interval must be positive").
			WithContext("job", name).
			WithContext("interval", interval.String()).
			Build()
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { task(ctx) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return "", errors.ValidationError("create periodic job").
			WithCause(err).
			WithContext("job", name).
			Build()
	}
	return job.ID().String(), nil
}

// ScheduleCron runs task on a standard five-field cron expression.
func (s *Scheduler) ScheduleCron(ctx context.Context, name, expression string, task func(context.Context)) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.CronJob(expression, false),
		gocron.NewTask(func() { task(ctx) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", errors.ValidationError(fmt.Sprintf("invalid cron expression %q", expression)).
			WithCause(err).
			WithContext("job", name).
			Build()
	}
	return job.ID().String(), nil
}

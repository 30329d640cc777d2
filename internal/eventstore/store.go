// Package eventstore keeps a journal of startup runs: when each run began,
// which actions it dispatched and how it ended. A projection folds the
// journal into per-run summaries for the history command.
package eventstore

import (
	"context"
	"time"
)

// Store persists and retrieves journal events.
type Store interface {
	Append(ctx context.Context, event Event) error

	// GetByRunID returns the events of one run, oldest first.
	GetByRunID(ctx context.Context, runID string) ([]Event, error)

	// GetRange returns events with start <= timestamp <= end, oldest first.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	Close() error
}

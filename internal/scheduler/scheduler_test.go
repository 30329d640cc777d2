package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduler_ScheduleEvery(t *testing.T) {
	t.Run("returns job id and runs immediately", func(t *testing.T) {
		s, err := New()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		var runs atomic.Int32
		id, err := s.ScheduleEvery(context.Background(), "checks", time.Hour, func(context.Context) { runs.Add(1) })
		require.NoError(t, err)
		require.NotEmpty(t, id)

		s.Start()
		require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		s, err := New()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		_, err = s.ScheduleEvery(context.Background(), "checks", 0, func(context.Context) {})
		require.Error(t, err)
	})
}

func TestScheduler_ScheduleCron(t *testing.T) {
	t.Run("returns job id for valid cron", func(t *testing.T) {
		s, err := New()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		id, err := s.ScheduleCron(context.Background(), "checks", "0 */4 * * *", func(context.Context) {})
		require.NoError(t, err)
		require.NotEmpty(t, id)
	})

	t.Run("rejects invalid cron", func(t *testing.T) {
		s, err := New()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		_, err = s.ScheduleCron(context.Background(), "checks", "this is not a cron", func(context.Context) {})
		require.Error(t, err)
	})
}

func TestScheduler_StopBeforeStart(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	_, err = s.ScheduleCron(context.Background(), "checks", "not a cron", func(context.Context) {})
	require.Error(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Stop() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on a scheduler that never started")
	}
}

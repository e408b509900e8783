package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for signal")
	}
}

func TestTaskStartStopErrors(t *testing.T) {
	task := NewTask(TaskConfig{Name: "noop", Interval: time.Hour}, func(context.Context) error { return nil })
	require.ErrorIs(t, task.Stop(), ErrNotRunning)

	require.NoError(t, task.Start(context.Background()))
	require.True(t, task.IsRunning())
	require.ErrorIs(t, task.Start(context.Background()), ErrAlreadyRunning)

	require.NoError(t, task.Stop())
	require.False(t, task.IsRunning())
	require.False(t, task.Trigger(), "stopped task does not run")
	task.Wait()
}

func TestTaskSingleFlight(t *testing.T) {
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	var calls atomic.Int32

	task := NewTask(TaskConfig{Name: "slow", Interval: time.Hour}, func(context.Context) error {
		calls.Add(1)
		started <- struct{}{}
		<-release
		return nil
	})
	require.NoError(t, task.Start(context.Background()))
	defer task.Stop()

	waitFor(t, started)
	require.True(t, task.InFlight())
	require.False(t, task.Trigger(), "overlapping run must be skipped")

	close(release)
	task.Wait()
	require.False(t, task.InFlight())

	require.True(t, task.Trigger())
	waitFor(t, started)
	task.Wait()
	require.EqualValues(t, 2, calls.Load())
}

func TestTaskThrottleCountsOnlySuccess(t *testing.T) {
	started := make(chan struct{}, 4)
	ok := NewTask(TaskConfig{Name: "ok", Interval: time.Hour, MinInterval: time.Hour}, func(context.Context) error {
		started <- struct{}{}
		return nil
	})
	require.NoError(t, ok.Start(context.Background()))
	defer ok.Stop()
	waitFor(t, started)
	ok.Wait()
	require.False(t, ok.Trigger(), "throttled after a successful run")

	failing := NewTask(TaskConfig{Name: "fail", Interval: time.Hour, MinInterval: time.Hour}, func(context.Context) error {
		started <- struct{}{}
		return errors.New("boom")
	})
	require.NoError(t, failing.Start(context.Background()))
	defer failing.Stop()
	waitFor(t, started)
	failing.Wait()
	require.True(t, failing.Trigger(), "failures do not start the throttle window")
	waitFor(t, started)
	failing.Wait()
}

func TestTaskTicks(t *testing.T) {
	started := make(chan struct{}, 16)
	task := NewTask(TaskConfig{Name: "tick", Interval: 10 * time.Millisecond}, func(context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		return nil
	})
	require.NoError(t, task.Start(context.Background()))
	waitFor(t, started)
	waitFor(t, started)
	require.NoError(t, task.Stop())
	task.Wait()
}

func TestTaskInFlightRunSurvivesStop(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var cancelled atomic.Bool

	task := NewTask(TaskConfig{Name: "detached", Interval: time.Hour}, func(ctx context.Context) error {
		started <- struct{}{}
		<-release
		cancelled.Store(ctx.Err() != nil)
		return nil
	})
	require.NoError(t, task.Start(context.Background()))
	waitFor(t, started)
	require.NoError(t, task.Stop())

	close(release)
	task.Wait()
	require.False(t, cancelled.Load(), "run context is not cancelled by Stop")
}

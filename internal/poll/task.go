// Package poll runs repeating fetches and merges their results into a
// local snapshot.
package poll

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/wirewave/internal/logging"
)

// Task errors.
var (
	ErrAlreadyRunning = errors.New("task already running")
	ErrNotRunning     = errors.New("task not running")
)

// TaskConfig configures a repeating task.
type TaskConfig struct {
	// Name is used in logs.
	Name string

	// Interval between scheduled runs.
	Interval time.Duration

	// MinInterval skips runs that start sooner than this after the last
	// successful run. Zero disables throttling.
	MinInterval time.Duration
}

// Task calls a function on an interval. At most one call is in flight at a
// time; ticks that land while a call is running are dropped.
type Task struct {
	config TaskConfig
	run    func(ctx context.Context) error
	logger zerolog.Logger
	now    func() time.Time

	mu          sync.Mutex
	running     bool
	inFlight    bool
	lastSuccess time.Time
	runCtx      context.Context
	cancel      context.CancelFunc
	loopWG      sync.WaitGroup
	runWG       sync.WaitGroup
}

// NewTask creates a stopped task.
func NewTask(config TaskConfig, run func(ctx context.Context) error) *Task {
	if config.Interval <= 0 {
		config.Interval = 4 * time.Second
	}
	if config.Name == "" {
		config.Name = "task"
	}
	return &Task{
		config: config,
		run:    run,
		logger: logging.Component("poll").With().Str("task", config.Name).Logger(),
		now:    time.Now,
	}
}

// Start runs the function once immediately and then on every tick until
// ctx is done or Stop is called.
func (t *Task) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	// Calls already started finish even after Stop.
	t.runCtx = context.WithoutCancel(ctx)
	t.running = true

	t.logger.Debug().
		Dur("interval", t.config.Interval).
		Dur("min_interval", t.config.MinInterval).
		Msg("task starting")

	t.loopWG.Add(1)
	go t.loop(loopCtx)
	return nil
}

// Stop halts the schedule. A call already in flight is not interrupted;
// use Wait to block until it returns.
func (t *Task) Stop() error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return ErrNotRunning
	}
	t.cancel()
	t.running = false
	t.mu.Unlock()

	t.loopWG.Wait()
	t.logger.Debug().Msg("task stopped")
	return nil
}

// IsRunning reports whether the schedule is active.
func (t *Task) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// InFlight reports whether a call is currently executing.
func (t *Task) InFlight() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight
}

// Trigger starts an immediate call unless one is in flight, the task is
// stopped, or the throttle interval has not elapsed. It reports whether a
// call was started.
func (t *Task) Trigger() bool {
	return t.tryRun()
}

// Wait blocks until no call is in flight.
func (t *Task) Wait() {
	t.runWG.Wait()
}

func (t *Task) loop(ctx context.Context) {
	defer t.loopWG.Done()

	t.tryRun()

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tryRun()
		}
	}
}

func (t *Task) tryRun() bool {
	t.mu.Lock()
	if !t.running || t.inFlight {
		t.mu.Unlock()
		return false
	}
	if t.config.MinInterval > 0 && !t.lastSuccess.IsZero() &&
		t.now().Sub(t.lastSuccess) < t.config.MinInterval {
		t.mu.Unlock()
		return false
	}
	t.inFlight = true
	ctx := t.runCtx
	t.runWG.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.runWG.Done()
		err := t.run(ctx)

		t.mu.Lock()
		t.inFlight = false
		if err == nil {
			t.lastSuccess = t.now()
		}
		t.mu.Unlock()

		if err != nil {
			t.logger.Debug().Err(err).Msg("run failed")
		}
	}()
	return true
}

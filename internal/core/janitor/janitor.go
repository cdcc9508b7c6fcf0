// Package janitor runs periodic maintenance tasks with an explicit stop handle.
package janitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warroom/warroom/internal/observability"
)

// Task is one sweep. The returned count is logged when non-zero.
type Task func(ctx context.Context) (int, error)

// Janitor invokes Task every Interval until stopped.
type Janitor struct {
	Name     string
	Interval time.Duration
	Task     Task
	Logger   observability.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a janitor that is not yet running.
func New(name string, interval time.Duration, task Task, logger observability.Logger) *Janitor {
	return &Janitor{Name: name, Interval: interval, Task: task, Logger: logger}
}

// Start launches the sweep loop. Calling Start on a running janitor is a no-op.
func (j *Janitor) Start(ctx context.Context) {
	if j == nil || j.Task == nil || j.Interval <= 0 {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.done = make(chan struct{})

	go j.loop(runCtx, j.done)
}

// Stop cancels the loop and waits for an in-flight sweep to return.
func (j *Janitor) Stop() {
	if j == nil {
		return
	}

	j.mu.Lock()
	cancel, done := j.cancel, j.done
	j.cancel, j.done = nil, nil
	j.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is active.
func (j *Janitor) Running() bool {
	if j == nil {
		return false
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancel != nil
}

func (j *Janitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep synchronously.
func (j *Janitor) RunOnce(ctx context.Context) {
	logger := observability.OrNop(j.Logger)

	removed, err := j.Task(ctx)
	if err != nil {
		logger.Warn("Sweep failed", zap.String("janitor", j.Name), zap.Error(err))
		return
	}
	if removed > 0 {
		logger.Info("Sweep completed", zap.String("janitor", j.Name), zap.Int("removed", removed))
	}
}

package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task is one unit of periodic work.
type Task func(ctx context.Context) error

// Periodic runs a Task every period until shut down.
type Periodic struct {
	name   string
	period time.Duration
	task   Task
	logger *slog.Logger

	mutex     sync.Mutex
	stopped   bool
	stopCh    chan struct{}
	done      chan struct{}
	started   bool
	runs      int
	lastErr   error
	lastRunAt time.Time
}

// New returns a stopped worker. Call Loop to start it.
func New(name string, period time.Duration, task Task, logger *slog.Logger) *Periodic {
	if logger == nil {
		logger = slog.Default()
	}

	return &Periodic{
		name:   name,
		period: period,
		task:   task,
		logger: logger.With(slog.String("worker", name)),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Name returns the worker name.
func (p *Periodic) Name() string {
	return p.name
}

// Period returns the delay between the end of one run and the start of the next.
func (p *Periodic) Period() time.Duration {
	return p.period
}

// Loop runs the task immediately and then once per period after each run
// completes. It blocks until Shutdown is called or ctx is cancelled, and
// returns only after the run in flight (if any) has finished. The task gets
// a context that is not cancelled with ctx, so shutdown never interrupts work
// already started. Loop must be called at most once.
func (p *Periodic) Loop(ctx context.Context) {
	p.mutex.Lock()
	if p.started {
		p.mutex.Unlock()
		p.logger.Warn("Loop called twice, ignoring")
		return
	}
	p.started = true
	p.mutex.Unlock()

	defer close(p.done)

	taskCtx := context.WithoutCancel(ctx)

	p.logger.Info("Worker started", slog.Duration("period", p.period))
	defer p.logger.Info("Worker stopped")

	for {
		if p.isStopped() || ctx.Err() != nil {
			return
		}

		p.runOnce(taskCtx)

		timer := time.NewTimer(p.period)
		select {
		case <-timer.C:
		case <-p.stopCh:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// Shutdown cancels the pending timer so no further run starts. A run already
// in flight is not interrupted. Shutdown is idempotent.
func (p *Periodic) Shutdown() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true
	close(p.stopCh)
}

// Done is closed when Loop has returned.
func (p *Periodic) Done() <-chan struct{} {
	return p.done
}

// Stats reports how many runs completed and the error of the latest run.
func (p *Periodic) Stats() (runs int, lastErr error, lastRunAt time.Time) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.runs, p.lastErr, p.lastRunAt
}

func (p *Periodic) isStopped() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.stopped
}

// runOnce executes the task and absorbs its failure, including panics.
func (p *Periodic) runOnce(ctx context.Context) {
	start := time.Now()
	err := p.safeRun(ctx)

	p.mutex.Lock()
	p.runs++
	p.lastErr = err
	p.lastRunAt = start
	p.mutex.Unlock()

	if err != nil {
		p.logger.Error("Run failed, next run scheduled anyway",
			slog.Any("err", err),
			slog.Duration("took", time.Since(start)))
		return
	}

	p.logger.Debug("Run finished", slog.Duration("took", time.Since(start)))
}

func (p *Periodic) safeRun(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker %s panicked: %v", p.name, r)
		}
	}()
	return p.task(ctx)
}

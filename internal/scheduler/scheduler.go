// Package scheduler runs one-shot tasks after a delay without blocking the caller.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sbilibin2017/gw-remit/internal/logger"
)

// ErrStopped is returned when scheduling on a scheduler that was shut down.
var ErrStopped = errors.New("scheduler stopped")

// Task is a unit of deferred work. The context is cancelled on shutdown.
type Task func(ctx context.Context)

// Scheduler starts each task on its own goroutine once its delay elapses.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
	nextID  uint64
	pending map[uint64]*time.Timer

	running sync.WaitGroup
}

// New creates a running scheduler.
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[uint64]*time.Timer),
	}
}

// Schedule runs task after delay. A non-positive delay starts the task immediately.
func (s *Scheduler) Schedule(name string, delay time.Duration, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		logger.Log.Warnw("task dropped, scheduler stopped", "task", name)
		return ErrStopped
	}

	id := s.nextID
	s.nextID++

	if delay < 0 {
		delay = 0
	}
	s.pending[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if _, ok := s.pending[id]; !ok {
			s.mu.Unlock()
			return
		}
		delete(s.pending, id)
		s.running.Add(1)
		s.mu.Unlock()

		defer s.running.Done()
		s.run(name, task)
	})

	logger.Log.Debugw("task scheduled", "task", name, "delay", delay)
	return nil
}

func (s *Scheduler) run(name string, task Task) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Log.Errorw("task panicked", "task", name, "panic", rec)
		}
	}()

	start := time.Now()
	task(s.ctx)
	logger.Log.Debugw("task finished", "task", name, "duration", time.Since(start))
}

// Pending returns the number of tasks still waiting for their delay.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Shutdown stops pending timers, cancels the task context and waits for
// running tasks until ctx is done. Dropped tasks are left to the reconciler.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		for id, timer := range s.pending {
			timer.Stop()
			delete(s.pending, id)
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}

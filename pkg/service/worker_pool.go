package service

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

var ErrPoolStopped = errors.New("worker pool stopped")

// Job is the body of one background unit. ctx is cancelled only when the pool stops.
type Job func(ctx context.Context)

// TaskHandle refers to a running background unit.
type TaskHandle struct {
	ID     string
	cancel context.CancelFunc
	done   chan struct{}
}

// Done is closed when the unit returns.
func (h *TaskHandle) Done() <-chan struct{} {
	return h.done
}

func (h *TaskHandle) Wait() {
	<-h.done
}

// Cancel signals the unit's context. Units decide themselves how to react.
func (h *TaskHandle) Cancel() {
	h.cancel()
}

// WorkerPool runs each submitted job on its own goroutine. When maxConcurrent
// is positive, at most that many jobs execute at once; the rest wait for a slot
// without blocking the submitter.
type WorkerPool struct {
	ctx     context.Context
	cancel  context.CancelFunc
	sem     *semaphore.Weighted
	logger  Logger
	handles map[string]*TaskHandle
	stopped bool
	mu      sync.Mutex
	wg      sync.WaitGroup
}

func NewWorkerPool(mainCtx context.Context, maxConcurrent int, logger Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(mainCtx)
	wp := &WorkerPool{
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
		handles: make(map[string]*TaskHandle),
	}
	if maxConcurrent > 0 {
		wp.sem = semaphore.NewWeighted(int64(maxConcurrent))
	}
	return wp
}

// Go starts job for the task id and returns immediately.
func (wp *WorkerPool) Go(id string, job Job) (*TaskHandle, error) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.stopped {
		return nil, ErrPoolStopped
	}
	if _, exists := wp.handles[id]; exists {
		return nil, errors.Errorf("task %s already running", id)
	}

	ctx, cancel := context.WithCancel(wp.ctx)
	h := &TaskHandle{ID: id, cancel: cancel, done: make(chan struct{})}
	wp.handles[id] = h
	wp.wg.Add(1)

	go func() {
		defer wp.wg.Done()
		defer close(h.done)
		defer cancel()
		defer wp.release(id)

		if wp.sem != nil {
			// A failed acquire means the pool is stopping; the job still runs
			// with the cancelled context so it can record its outcome.
			if err := wp.sem.Acquire(ctx, 1); err == nil {
				defer wp.sem.Release(1)
			} else {
				wp.logger.Infof("Task %s started without a slot: %v", id, err)
			}
		}
		defer func() {
			if r := recover(); r != nil {
				wp.logger.Errorf("Task %s panicked: %v\n%s", id, r, debug.Stack())
			}
		}()
		job(ctx)
	}()
	return h, nil
}

func (wp *WorkerPool) release(id string) {
	wp.mu.Lock()
	delete(wp.handles, id)
	wp.mu.Unlock()
}

// Handle returns the handle of a unit that is still running.
func (wp *WorkerPool) Handle(id string) (*TaskHandle, bool) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	h, ok := wp.handles[id]
	return h, ok
}

func (wp *WorkerPool) Running() int {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return len(wp.handles)
}

// Wait blocks until every started unit has returned.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Stop refuses new jobs, cancels running ones and waits for them.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	wp.stopped = true
	wp.mu.Unlock()
	wp.cancel()
	wp.wg.Wait()
}


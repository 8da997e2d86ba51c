// Package runtime is the bounded worker pool that executes dispatched
// connection work, per spec.md §4.9 and §6.
//
// Grounded on original_source/include/runtime.hpp and src/runtime.cpp: an
// MPSC task queue drained by a fixed number of worker threads started by
// Start, plus an `attach` escape hatch that spawns a dedicated thread
// outside the pool entirely. The Go idiom for the MPSC queue is a
// buffered channel of closures read by N goroutines; golang.org/x/sync/
// semaphore.Weighted bounds how many tasks may be in flight or queued at
// once, since an unbounded Go channel has no backpressure signal of its
// own.
package runtime

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/kestrelhttp/kestrel/internal/kconst"
)

// ErrQueueFull is returned by TryDispatch when the pool's admission
// semaphore is saturated.
var ErrQueueFull = errors.New("runtime: task queue full")

// Pool is a fixed-size worker pool, mirroring the shape of
// kana::runtime (worker_threads + dispatch + start) from the source this
// spec was distilled from.
type Pool struct {
	tasks chan func()
	sem   *semaphore.Weighted

	wg      sync.WaitGroup
	stop    chan struct{}
	stopOnce sync.Once
}

// NewPool builds a pool with a task-queue depth bound enforced via a
// weighted semaphore. It starts no goroutines and does not keep the
// workers argument; Start's argument sets how many workers run.
func NewPool(workers, queueDepth int) *Pool {
	if workers <= 0 {
		workers = kconst.DefaultWorkerThreads
	}
	if queueDepth <= 0 {
		queueDepth = kconst.DefaultTaskQueueDepth
	}
	return &Pool{
		tasks: make(chan func(), queueDepth),
		sem:   semaphore.NewWeighted(int64(queueDepth)),
		stop:  make(chan struct{}),
	}
}

// Start launches the pool's worker goroutines. It does not block, unlike
// the source's start() which joins its threads forever — Go callers
// instead hold the *Pool and call Stop when shutting down.
func (p *Pool) Start(workers int) {
	if workers <= 0 {
		workers = kconst.DefaultWorkerThreads
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			task()
		}
	}
}

// Dispatch enqueues work for a pool worker to run, blocking if the queue
// is at capacity until a slot frees up or ctx is done.
func (p *Pool) Dispatch(ctx context.Context, task func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	wrapped := func() {
		defer p.sem.Release(1)
		task()
	}
	select {
	case p.tasks <- wrapped:
		return nil
	case <-p.stop:
		p.sem.Release(1)
		return errors.New("runtime: pool stopped")
	}
}

// TryDispatch enqueues work without blocking, returning ErrQueueFull if the
// pool has no admission capacity available right now.
func (p *Pool) TryDispatch(task func()) error {
	if !p.sem.TryAcquire(1) {
		return ErrQueueFull
	}
	wrapped := func() {
		defer p.sem.Release(1)
		task()
	}
	select {
	case p.tasks <- wrapped:
		return nil
	default:
		p.sem.Release(1)
		return ErrQueueFull
	}
}

// Attach runs fn on a dedicated goroutine outside the bounded pool
// entirely, the Go analogue of runtime::attach's detached std::thread —
// the escape hatch spec.md §4.9 describes for handlers marked Async, which
// must not be starved by (or starve) the bounded pool's admission limit.
func (p *Pool) Attach(fn func()) {
	go fn()
}

// Stop signals all workers to exit once they finish any in-flight task and
// waits for them to do so.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()
}

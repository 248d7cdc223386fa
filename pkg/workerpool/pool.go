// Package workerpool provides a bounded goroutine pool with backpressure.
//
// When every worker is busy and the buffer is full, Submit returns
// ErrPoolFull immediately so the caller can decide what to drop. The event
// dispatcher runs its asynchronous listeners on a Pool.
//
//	pool := workerpool.New(8)
//	defer pool.Shutdown()
//
//	if err := pool.Submit(task); errors.Is(err, workerpool.ErrPoolFull) {
//	    // shed load
//	}
package workerpool

import (
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
)

var (
	// ErrPoolFull is returned by Submit when the task buffer is at capacity.
	ErrPoolFull = errors.New("workerpool: pool is full")
	// ErrPoolClosed is returned after Shutdown has been called.
	ErrPoolClosed = errors.New("workerpool: pool is closed")
)

// Pool is a bounded goroutine pool.
type Pool struct {
	mu      sync.RWMutex // guards closed and sends on tasks
	closed  bool
	tasks   chan func()
	closeCh chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	log     *slog.Logger
}

// New starts size workers. The task buffer holds 2×size pending tasks.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	p := &Pool{
		tasks:   make(chan func(), size*2),
		closeCh: make(chan struct{}),
		log:     slog.Default(),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues task without blocking.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait blocks until the task is buffered or the pool shuts down.
func (p *Pool) SubmitWait(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	case <-p.closeCh:
		return ErrPoolClosed
	}
}

// Shutdown stops accepting tasks, runs everything already buffered and waits
// for the workers to exit. Safe to call more than once.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.closeCh) // release SubmitWait callers blocked on a full buffer
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.safeRun(task)
	}
}

// safeRun keeps a panicking task from killing its worker.
func (p *Pool) safeRun(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("workerpool: task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	task()
}

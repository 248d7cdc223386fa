// Package event is an in-process publish/subscribe dispatcher. Listeners run
// synchronously with Fire or on a bounded worker pool with FireAsync.
package event

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/kwanzatukule/marketplace/pkg/workerpool"
)

// Handler receives an event payload. Handlers must not assume they run on
// the publisher's goroutine.
type Handler func(ctx context.Context, payload any)

// Dispatcher routes named events to their listeners.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	pool     *workerpool.Pool
	log      *slog.Logger
}

// NewDispatcher creates a Dispatcher whose async listeners run on workers
// goroutines.
func NewDispatcher(workers int, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		handlers: map[string][]Handler{},
		pool:     workerpool.New(workers),
		log:      log,
	}
}

// Listen registers handler for event.
func (d *Dispatcher) Listen(event string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[event] = append(d.handlers[event], handler)
}

// Has reports whether event has at least one listener.
func (d *Dispatcher) Has(event string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[event]) > 0
}

// Fire runs every listener for event in registration order and returns when
// they are done.
func (d *Dispatcher) Fire(ctx context.Context, event string, payload any) {
	for _, h := range d.listeners(event) {
		h(ctx, payload)
	}
}

// FireAsync queues each listener on the worker pool and returns immediately.
// The listener context keeps ctx's values but not its cancellation, so a
// finished HTTP request does not abort its follow-up work. When the pool is
// saturated the listener is dropped and logged.
func (d *Dispatcher) FireAsync(ctx context.Context, event string, payload any) {
	detached := context.WithoutCancel(ctx)
	for _, h := range d.listeners(event) {
		err := d.pool.Submit(func() { h(detached, payload) })
		if err != nil {
			level := slog.LevelWarn
			if errors.Is(err, workerpool.ErrPoolClosed) {
				level = slog.LevelDebug
			}
			d.log.Log(ctx, level, "event: listener dropped", "event", event, "error", err)
		}
	}
}

// Flush removes every listener. Useful in tests.
func (d *Dispatcher) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = map[string][]Handler{}
}

// Close waits for queued async listeners and stops the pool.
func (d *Dispatcher) Close() {
	d.pool.Shutdown()
}

func (d *Dispatcher) listeners(event string) []Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	hs := make([]Handler, len(d.handlers[event]))
	copy(hs, d.handlers[event])
	return hs
}

// Package schedule runs periodic maintenance tasks inside the server process.
//
//	s := schedule.New(log)
//	s.Every(time.Hour, "prune_failed_jobs", func(ctx context.Context) error { ... })
//	go s.Run(ctx)
//
// A task never overlaps with itself: a tick that finds the previous run still
// going is skipped.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Task is one unit of scheduled work.
type Task func(ctx context.Context) error

type entry struct {
	name     string
	interval time.Duration
	task     Task

	mu      sync.Mutex
	lastRun time.Time
	running bool
}

// Scheduler dispatches due tasks once per tick.
type Scheduler struct {
	log  *slog.Logger
	tick time.Duration

	mu      sync.Mutex
	entries []*entry
	wg      sync.WaitGroup
}

// New returns a Scheduler that checks for due tasks every second.
func New(log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{log: log, tick: time.Second}
}

// Every registers task to run every interval. The first run happens on the
// first tick after Run starts.
func (s *Scheduler) Every(interval time.Duration, name string, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, &entry{name: name, interval: interval, task: task})
}

// List describes every registered task, sorted by name.
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, fmt.Sprintf("%s  [every %s]", e.name, e.interval))
	}
	sort.Strings(out)
	return out
}

// Run blocks until ctx is done, then waits for running tasks to return.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	defer s.wg.Wait()

	s.log.Info("schedule: scheduler started", "tasks", len(s.List()))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("schedule: scheduler stopped")
			return
		case now := <-ticker.C:
			s.mu.Lock()
			current := append([]*entry(nil), s.entries...)
			s.mu.Unlock()

			for _, e := range current {
				if e.due(now) {
					s.dispatch(ctx, e, now)
				}
			}
		}
	}
}

func (e *entry) due(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastRun.IsZero() || now.Sub(e.lastRun) >= e.interval
}

func (s *Scheduler) dispatch(ctx context.Context, e *entry, now time.Time) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		s.log.Warn("schedule: skipping overlapping task", "task", e.name)
		return
	}
	e.running = true
	e.lastRun = now
	e.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			if r := recover(); r != nil {
				s.log.Error("schedule: task panicked", "task", e.name, "panic", r)
			}
		}()

		start := time.Now()
		if err := e.task(ctx); err != nil {
			s.log.Error("schedule: task failed", "task", e.name, "error", err)
			return
		}
		s.log.Debug("schedule: task done", "task", e.name, "duration", time.Since(start))
	}()
}

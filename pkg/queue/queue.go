// Package queue runs background jobs with retry and failed-job persistence.
//
//	q := queue.New(queue.NewMemoryDriver())
//	q.Register("notify_farmer", func() queue.Job { return &NotifyFarmer{deps: d} })
//	q.Dispatch(ctx, &NotifyFarmer{OrderID: 7})
//	q.Start(ctx, 2)
//
// Jobs are serialised as JSON inside an envelope carrying the job name, so
// the worker that pops a job need not be the process that dispatched it.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/kwanzatukule/marketplace/pkg/metrics"
)

// Job is the interface every queued job must satisfy.
type Job interface {
	Handle(ctx context.Context) error
}

// Named jobs choose their registry name; otherwise the Go type name is used.
type Named interface {
	JobName() string
}

// Driver is the queue storage backend.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	// Pop blocks until a payload is available or ctx ends. A nil payload with
	// a nil error means "nothing yet, ask again".
	Pop(ctx context.Context) ([]byte, error)
}

// DelayedDriver is implemented by drivers that schedule natively.
type DelayedDriver interface {
	PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error
}

// FailedJob is an in-memory record of a job that exhausted its retries.
type FailedJob struct {
	Name     string
	Payload  []byte
	Err      error
	FailedAt time.Time
	Attempts int
}

// ErrUnknownJob is returned when a popped envelope names an unregistered job.
var ErrUnknownJob = errors.New("queue: unregistered job type")

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Queued  time.Time       `json:"queued_at"`
}

// Manager dispatches and processes jobs.
type Manager struct {
	mu       sync.RWMutex
	driver   Driver
	registry map[string]func() Job
	failed   []FailedJob
	db       *gorm.DB
	maxRetry int
	backoff  func(attempt int) time.Duration
	log      *slog.Logger
	wg       sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxRetry sets how many attempts a job gets before it is failed.
func WithMaxRetry(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxRetry = n
		}
	}
}

// WithBackoff replaces the linear one-second-per-attempt backoff.
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(m *Manager) { m.backoff = fn }
}

// WithFailedJobStore persists failed jobs to the failed_jobs table.
func WithFailedJobStore(db *gorm.DB) Option {
	return func(m *Manager) { m.db = db }
}

func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// New creates a Manager on driver.
func New(driver Driver, opts ...Option) *Manager {
	m := &Manager{
		driver:   driver,
		registry: map[string]func() Job{},
		maxRetry: 3,
		backoff:  func(attempt int) time.Duration { return time.Duration(attempt) * time.Second },
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Register makes a job type available for decoding by name.
func (m *Manager) Register(name string, factory func() Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[name] = factory
}

// ─── Dispatch ─────────────────────────────────────────────────────────────────

// Dispatch pushes job onto the queue.
func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	raw, name, err := encode(job)
	if err != nil {
		return err
	}
	if err := m.driver.Push(ctx, raw); err != nil {
		return fmt.Errorf("queue: push %s: %w", name, err)
	}
	return nil
}

// DispatchAfter schedules job to be queued after delay. Drivers without
// native scheduling fall back to a timer in this process.
func (m *Manager) DispatchAfter(ctx context.Context, job Job, delay time.Duration) error {
	raw, name, err := encode(job)
	if err != nil {
		return err
	}
	if dd, ok := m.driver.(DelayedDriver); ok {
		return dd.PushDelayed(ctx, raw, delay)
	}

	detached := context.WithoutCancel(ctx)
	time.AfterFunc(delay, func() {
		if err := m.driver.Push(detached, raw); err != nil {
			m.log.Error("queue: delayed dispatch failed", "type", name, "error", err)
		}
	})
	return nil
}

func encode(job Job) ([]byte, string, error) {
	name := jobName(job)

	payload, err := json.Marshal(job)
	if err != nil {
		return nil, name, fmt.Errorf("queue: marshal job %s: %w", name, err)
	}
	raw, err := json.Marshal(envelope{Type: name, Payload: payload, Queued: time.Now().UTC()})
	if err != nil {
		return nil, name, fmt.Errorf("queue: marshal envelope: %w", err)
	}
	return raw, name, nil
}

func jobName(job Job) string {
	if n, ok := job.(Named); ok {
		return n.JobName()
	}
	return fmt.Sprintf("%T", job)
}

// ─── Workers ──────────────────────────────────────────────────────────────────

// Start launches n workers that run until ctx is cancelled. Wait blocks until
// they have all returned.
func (m *Manager) Start(ctx context.Context, n int) {
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.work(ctx)
		}()
	}
	m.log.Info("queue: workers started", "count", n)
}

// Wait blocks until every worker started by Start has exited.
func (m *Manager) Wait() { m.wg.Wait() }

func (m *Manager) work(ctx context.Context) {
	for {
		raw, err := m.driver.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.log.Warn("queue: pop failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}
		if raw == nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}

		if err := m.Process(ctx, raw); err != nil {
			m.log.Error("queue: process", "error", err)
		}
	}
}

// Process decodes one envelope and runs its job with retries. It returns an
// error only for envelopes that cannot be decoded; job failures are recorded
// as failed jobs instead.
func (m *Manager) Process(ctx context.Context, raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("queue: bad envelope: %w", err)
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, env.Type)
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		return fmt.Errorf("queue: unmarshal %s payload: %w", env.Type, err)
	}

	m.runWithRetry(ctx, job, env.Type, env.Payload)
	return nil
}

func (m *Manager) runWithRetry(ctx context.Context, job Job, name string, payload []byte) {
	start := time.Now()
	var lastErr error

	for attempt := 1; attempt <= m.maxRetry; attempt++ {
		lastErr = job.Handle(ctx)
		if lastErr == nil {
			metrics.RecordQueueJob(name, "success", start)
			m.log.Debug("queue: job processed", "type", name, "attempt", attempt)
			return
		}

		m.log.Warn("queue: job failed", "type", name, "attempt", attempt, "error", lastErr)
		if attempt == m.maxRetry {
			break
		}
		select {
		case <-ctx.Done():
			lastErr = fmt.Errorf("%w (abandoned: %v)", lastErr, ctx.Err())
			attempt = m.maxRetry
		case <-time.After(m.backoff(attempt)):
		}
	}

	metrics.RecordQueueJob(name, "failed", start)
	m.persistFailed(name, payload, lastErr)
	m.log.Error("queue: job exhausted retries", "type", name, "error", lastErr)
}

// FailedJobs returns a snapshot of jobs that failed in this process.
func (m *Manager) FailedJobs() []FailedJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FailedJob, len(m.failed))
	copy(out, m.failed)
	return out
}

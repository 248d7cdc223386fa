package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kwanzatukule/marketplace/pkg/logger"
)

func fastScheduler() *Scheduler {
	s := New(logger.Discard())
	s.tick = 5 * time.Millisecond
	return s
}

func TestEveryRunsRepeatedly(t *testing.T) {
	s := fastScheduler()
	var runs atomic.Int32
	s.Every(10*time.Millisecond, "count", func(context.Context) error {
		runs.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { s.Run(ctx); close(done) }()

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestTasksDoNotOverlap(t *testing.T) {
	s := fastScheduler()
	var active, maxActive atomic.Int32
	release := make(chan struct{})
	s.Every(time.Millisecond, "slow", func(context.Context) error {
		n := active.Add(1)
		if n > maxActive.Load() {
			maxActive.Store(n)
		}
		<-release
		active.Add(-1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { s.Run(ctx); close(done) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	close(release)
	<-done
	assert.EqualValues(t, 1, maxActive.Load())
}

func TestFailingAndPanickingTasksKeepRunning(t *testing.T) {
	s := fastScheduler()
	var failures, panics atomic.Int32
	s.Every(time.Millisecond, "fails", func(context.Context) error {
		failures.Add(1)
		return errors.New("boom")
	})
	s.Every(time.Millisecond, "panics", func(context.Context) error {
		panics.Add(1)
		panic("boom")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { s.Run(ctx); close(done) }()

	assert.Eventually(t, func() bool { return failures.Load() >= 2 && panics.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestList(t *testing.T) {
	s := New(nil)
	s.Every(time.Hour, "prune_failed_jobs", func(context.Context) error { return nil })
	s.Every(time.Minute, "audit", func(context.Context) error { return nil })

	assert.Equal(t, []string{"audit  [every 1m0s]", "prune_failed_jobs  [every 1h0m0s]"}, s.List())
}

package queue_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwanzatukule/marketplace/pkg/queue"
	"github.com/kwanzatukule/marketplace/pkg/testkit"
)

type echoJob struct {
	Val  string `json:"val"`
	seen chan string
}

func (j *echoJob) JobName() string { return "echo" }

func (j *echoJob) Handle(context.Context) error {
	j.seen <- j.Val
	return nil
}

type failJob struct {
	OrderID  uint `json:"order_id"`
	attempts *atomic.Int32
}

func (j *failJob) JobName() string { return "fail" }

func (j *failJob) Handle(context.Context) error {
	j.attempts.Add(1)
	return errors.New("farmer unreachable")
}

func noBackoff(int) time.Duration { return 0 }

func TestDispatchAndProcess(t *testing.T) {
	seen := make(chan string, 1)
	q := queue.New(queue.NewMemoryDriver())
	q.Register("echo", func() queue.Job { return &echoJob{seen: seen} })

	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx, 2)

	require.NoError(t, q.Dispatch(ctx, &echoJob{Val: "hello"}))

	select {
	case v := <-seen:
		assert.Equal(t, "hello", v)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}

	cancel()
	q.Wait()
}

func TestFailedJobIsRetriedAndPersisted(t *testing.T) {
	db := testkit.OpenDB(t, &queue.FailedJobRecord{})
	attempts := &atomic.Int32{}

	driver := queue.NewMemoryDriver()
	q := queue.New(driver,
		queue.WithMaxRetry(3),
		queue.WithBackoff(noBackoff),
		queue.WithFailedJobStore(db),
	)
	q.Register("fail", func() queue.Job { return &failJob{attempts: attempts} })

	ctx := context.Background()
	require.NoError(t, q.Dispatch(ctx, &failJob{OrderID: 9}))

	raw, err := driver.Pop(ctx)
	require.NoError(t, err)
	require.NoError(t, q.Process(ctx, raw))

	assert.EqualValues(t, 3, attempts.Load())

	failed := q.FailedJobs()
	require.Len(t, failed, 1)
	assert.Equal(t, "fail", failed[0].Name)
	assert.JSONEq(t, `{"order_id":9}`, string(failed[0].Payload))

	var rec queue.FailedJobRecord
	require.NoError(t, db.First(&rec).Error)
	assert.Equal(t, "fail", rec.JobType)
	assert.Equal(t, 3, rec.Attempts)
	assert.Contains(t, rec.Error, "farmer unreachable")
}

func TestProcessUnknownJob(t *testing.T) {
	driver := queue.NewMemoryDriver()
	q := queue.New(driver)

	ctx := context.Background()
	require.NoError(t, q.Dispatch(ctx, &echoJob{Val: "x"}))
	raw, err := driver.Pop(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, q.Process(ctx, raw), queue.ErrUnknownJob)
	assert.Error(t, q.Process(ctx, []byte("not json")))
}

func TestDispatchAfterWithoutNativeScheduling(t *testing.T) {
	driver := queue.NewMemoryDriver()
	q := queue.New(driver)

	require.NoError(t, q.DispatchAfter(context.Background(), &echoJob{Val: "later"}, 10*time.Millisecond))
	assert.Equal(t, 0, driver.Len())

	assert.Eventually(t, func() bool { return driver.Len() == 1 }, time.Second, 5*time.Millisecond)
}

func TestMemoryDriverFull(t *testing.T) {
	driver := queue.NewMemoryDriver()
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		require.NoError(t, driver.Push(ctx, []byte("x")))
	}
	assert.ErrorIs(t, driver.Push(ctx, []byte("x")), queue.ErrQueueFull)
}

func TestPruneFailed(t *testing.T) {
	db := testkit.OpenDB(t, &queue.FailedJobRecord{})
	now := time.Now()
	require.NoError(t, db.Create(&[]queue.FailedJobRecord{
		{JobType: "old", Payload: "{}", FailedAt: now.Add(-10 * 24 * time.Hour)},
		{JobType: "recent", Payload: "{}", FailedAt: now.Add(-time.Hour)},
	}).Error)

	q := queue.New(queue.NewMemoryDriver(), queue.WithFailedJobStore(db))
	n, err := q.PruneFailed(context.Background(), now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var left []queue.FailedJobRecord
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "recent", left[0].JobType)
}

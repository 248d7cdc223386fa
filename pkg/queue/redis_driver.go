package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisQueueKey   = "marketplace:queue:jobs"
	redisDelayedKey = "marketplace:queue:delayed"
)

// RedisDriver is the durable driver. Immediate jobs use LPUSH/BRPOP on a
// list; delayed jobs wait in a sorted set scored by their due Unix time and
// are promoted once a second.
type RedisDriver struct {
	rdb  *redis.Client
	stop chan struct{}
	once sync.Once
}

// NewRedisDriver starts the delayed-job promoter. Call Close to stop it.
func NewRedisDriver(rdb *redis.Client) *RedisDriver {
	d := &RedisDriver{rdb: rdb, stop: make(chan struct{})}
	go d.promoteDelayedJobs()
	return d
}

func (d *RedisDriver) Push(ctx context.Context, payload []byte) error {
	if err := d.rdb.LPush(ctx, redisQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("queue/redis: push: %w", err)
	}
	return nil
}

// Pop waits up to 5s for a job (BRPOP).
func (d *RedisDriver) Pop(ctx context.Context) ([]byte, error) {
	result, err := d.rdb.BRPop(ctx, 5*time.Second, redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("queue/redis: pop: %w", err)
	}
	if len(result) < 2 {
		return nil, nil
	}
	return []byte(result[1]), nil
}

func (d *RedisDriver) PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error {
	runAt := float64(time.Now().Add(delay).Unix())
	if err := d.rdb.ZAdd(ctx, redisDelayedKey, redis.Z{Score: runAt, Member: string(payload)}).Err(); err != nil {
		return fmt.Errorf("queue/redis: push delayed: %w", err)
	}
	return nil
}

// Close stops the promoter. The client is owned by the caller.
func (d *RedisDriver) Close() {
	d.once.Do(func() { close(d.stop) })
}

func (d *RedisDriver) promoteDelayedJobs() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		now := strconv.FormatInt(time.Now().Unix(), 10)
		jobs, err := d.rdb.ZRangeByScore(ctx, redisDelayedKey, &redis.ZRangeBy{Min: "-inf", Max: now}).Result()
		if err == nil && len(jobs) > 0 {
			pipe := d.rdb.TxPipeline()
			for _, job := range jobs {
				pipe.ZRem(ctx, redisDelayedKey, job)
				pipe.LPush(ctx, redisQueueKey, job)
			}
			_, _ = pipe.Exec(ctx) // retried on the next tick
		}
		cancel()
	}
}

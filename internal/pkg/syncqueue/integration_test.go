package syncqueue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DennisVerbeek/TravelDesk/internal/pkg/compositor"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/env"
)

const isolatedSyncQueueTestRedisDB = 13

// newTestRedis connects to a local Redis instance and skips the test when
// none is reachable, mirroring how the rest of the queue tests run in CI.
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := env.GetEnv("CACHE_HOST", "localhost") + ":" + env.GetEnv("CACHE_PORT", "6379")
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       isolatedSyncQueueTestRedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available at %s: %v", addr, err)
	}

	require.NoError(t, client.FlushDB(context.Background()).Err())
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}

type countingRunner struct {
	calls int64
	fail  int64 // fail this many times before succeeding
}

func (r *countingRunner) SyncMicrosite(_ context.Context, _ int) ([]compositor.Booking, error) {
	atomic.AddInt64(&r.calls, 1)
	if atomic.AddInt64(&r.fail, -1) >= 0 {
		return nil, assert.AnError
	}
	return nil, nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

func TestQueueProcessesResyncJob(t *testing.T) {
	client := newTestRedis(t)
	runner := &countingRunner{}

	queue := NewQueue(client, runner, 1)
	queue.Start()
	defer queue.Stop()

	job, err := queue.EnqueueResync(1)
	require.NoError(t, err)

	ok := waitFor(t, 5*time.Second, func() bool {
		loaded, err := queue.GetJob(context.Background(), job.ID)
		return err == nil && loaded.Status == JobStatusCompleted
	})
	require.True(t, ok, "job did not complete in time")
	assert.EqualValues(t, 1, atomic.LoadInt64(&runner.calls))
}

func TestQueueRetriesFailedJob(t *testing.T) {
	client := newTestRedis(t)
	runner := &countingRunner{fail: 1}

	queue := NewQueue(client, runner, 1)
	queue.Start()
	defer queue.Stop()

	job, err := queue.EnqueueResync(2)
	require.NoError(t, err)

	ok := waitFor(t, 5*time.Second, func() bool {
		loaded, err := queue.GetJob(context.Background(), job.ID)
		return err == nil && loaded.Status == JobStatusCompleted
	})
	require.True(t, ok, "job did not recover in time")
	assert.EqualValues(t, 2, atomic.LoadInt64(&runner.calls), "one failure plus one successful retry")

	loaded, err := queue.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.RetryCount)
}

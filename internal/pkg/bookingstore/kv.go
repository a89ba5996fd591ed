package bookingstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DennisVerbeek/TravelDesk/internal/pkg/cache"
)

// ErrNotFound is returned by KV.Get for keys without a value.
var ErrNotFound = errors.New("bookingstore: key not found")

// KV is the narrow slice of the cache server the booking store needs. The
// store only ever overwrites whole keys or deletes them, never read-modify-
// writes, so last-writer-wins is the only consistency mode at this layer.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	SetMulti(ctx context.Context, entries map[string]string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type redisKV struct {
	client *redis.Client
}

// NewRedisKV wraps the shared Redis client from the cache package.
func NewRedisKV() KV {
	return &redisKV{client: cache.GetClient()}
}

func (r *redisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return val, err
}

// SetMulti writes all entries in one pipeline so a sync lands as a unit.
func (r *redisKV) SetMulti(ctx context.Context, entries map[string]string, ttl time.Duration) error {
	pipe := r.client.TxPipeline()
	for key, value := range entries {
		pipe.Set(ctx, key, value, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisKV) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

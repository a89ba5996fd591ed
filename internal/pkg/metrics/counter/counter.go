package counter

import (
	"context"
	"strconv"

	"github.com/DennisVerbeek/TravelDesk/internal/pkg/cache"
)

const (
	lookupCacheHitsKey   = "booking:counters:cache_hits"
	lookupCacheMissesKey = "booking:counters:cache_misses"
	lookupLiveFetchesKey = "booking:counters:live_fetches"
)

// AddCacheHit increments the cache-hit counter for a configuration
func AddCacheHit(configNumber int) error {
	ctx := context.Background()
	field := strconv.Itoa(configNumber)
	return cache.GetClient().HIncrBy(ctx, lookupCacheHitsKey, field, 1).Err()
}

// AddCacheMiss increments the cache-miss counter for a configuration
func AddCacheMiss(configNumber int) error {
	ctx := context.Background()
	field := strconv.Itoa(configNumber)
	return cache.GetClient().HIncrBy(ctx, lookupCacheMissesKey, field, 1).Err()
}

// AddLiveFetch increments the live-fallback counter for a configuration
func AddLiveFetch(configNumber int) error {
	ctx := context.Background()
	field := strconv.Itoa(configNumber)
	return cache.GetClient().HIncrBy(ctx, lookupLiveFetchesKey, field, 1).Err()
}

// LookupStats holds the per-configuration lookup counters
type LookupStats struct {
	CacheHits   map[string]int64 `json:"cache_hits"`
	CacheMisses map[string]int64 `json:"cache_misses"`
	LiveFetches map[string]int64 `json:"live_fetches"`
}

// Snapshot reads all lookup counters
func Snapshot() (*LookupStats, error) {
	ctx := context.Background()
	rdb := cache.GetClient()

	stats := &LookupStats{}
	var err error
	if stats.CacheHits, err = readHash(ctx, rdb.HGetAll(ctx, lookupCacheHitsKey).Result); err != nil {
		return nil, err
	}
	if stats.CacheMisses, err = readHash(ctx, rdb.HGetAll(ctx, lookupCacheMissesKey).Result); err != nil {
		return nil, err
	}
	if stats.LiveFetches, err = readHash(ctx, rdb.HGetAll(ctx, lookupLiveFetchesKey).Result); err != nil {
		return nil, err
	}
	return stats, nil
}

func readHash(_ context.Context, fetch func() (map[string]string, error)) (map[string]int64, error) {
	raw, err := fetch()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for field, value := range raw {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		out[field] = n
	}
	return out, nil
}

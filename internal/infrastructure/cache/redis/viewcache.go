package redis

import (
	"context"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/logging"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/prometheus"
	"github.com/Lossfunk/indiaml-tracker-sub001/pkg/errors"
)

// Cache is the derived-view cache the application layer depends on.  A nil
// or no-op implementation simply computes every time.
type Cache interface {
	// GetOrCompute returns the cached bytes for key, or runs compute and
	// stores its result.  The view label is used for metrics only.
	GetOrCompute(ctx context.Context, view, key string, compute func(context.Context) ([]byte, error)) ([]byte, error)

	// Invalidate removes every cached entry whose key matches pattern
	// (glob syntax, without the configured prefix) and reports how many
	// entries were deleted.
	Invalidate(ctx context.Context, pattern string) (int, error)
}

// Commands is the slice of the go-redis client the view cache uses,
// abstracted for testing.
type Commands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// ViewCache caches serialized dashboard views in Redis.  Concurrent misses
// on the same key are collapsed with singleflight so the aggregation
// pipeline runs at most once per key at a time.  Redis failures degrade to
// computing directly; the cache never makes a request fail.
type ViewCache struct {
	rdb     Commands
	prefix  string
	ttl     time.Duration
	group   singleflight.Group
	logger  logging.Logger
	metrics *prometheus.Metrics
}

// NewViewCache builds a ViewCache.  metrics may be nil.
func NewViewCache(rdb Commands, prefix string, ttl time.Duration, log logging.Logger, m *prometheus.Metrics) *ViewCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ViewCache{rdb: rdb, prefix: prefix, ttl: ttl, logger: log, metrics: m}
}

// GetOrCompute implements Cache.
func (c *ViewCache) GetOrCompute(ctx context.Context, view, key string, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	full := c.prefix + key

	data, err := c.rdb.Get(ctx, full).Bytes()
	switch {
	case err == nil:
		c.recordHit(view)
		return data, nil
	case err != redis.Nil:
		c.logger.Warn("view cache read failed, computing directly",
			logging.String("key", full), logging.Err(err))
	}
	c.recordMiss(view)

	v, err, _ := c.group.Do(full, func() (interface{}, error) {
		out, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.rdb.Set(ctx, full, out, c.jitteredTTL()).Err(); err != nil {
			c.logger.Warn("view cache write failed",
				logging.String("key", full), logging.Err(err))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate implements Cache.
func (c *ViewCache) Invalidate(ctx context.Context, pattern string) (int, error) {
	match := c.prefix + pattern
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return deleted, errors.Wrap(err, errors.CodeCacheError, "failed to scan view cache").WithDetail(match)
		}
		if len(keys) > 0 {
			n, err := c.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, errors.Wrap(err, errors.CodeCacheError, "failed to delete cached views")
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

// jitteredTTL spreads expirations so one dataset refresh does not expire
// every view at the same instant.
func (c *ViewCache) jitteredTTL() time.Duration {
	return c.ttl + time.Duration(rand.Int63n(int64(c.ttl/10)+1))
}

func (c *ViewCache) recordHit(view string) {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(view).Inc()
	}
}

func (c *ViewCache) recordMiss(view string) {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.WithLabelValues(view).Inc()
	}
}

// NopCache computes on every call.  Used when Redis is disabled.
type NopCache struct{}

func (NopCache) GetOrCompute(ctx context.Context, _, _ string, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	return compute(ctx)
}

func (NopCache) Invalidate(context.Context, string) (int, error) { return 0, nil }

package redis

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/logging"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/prometheus"
)

type fakeRedis struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Scan(_ context.Context, _ uint64, match string, _ int64) *redis.ScanCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.data {
		if ok, _ := filepath.Match(match, k); ok {
			keys = append(keys, k)
		}
	}
	return redis.NewScanCmdResult(keys, 0, nil)
}

func newTestCache(rdb Commands) *ViewCache {
	return NewViewCache(rdb, "indiaml:", time.Minute, logging.NewNopLogger(), nil)
}

func TestGetOrComputeStoresOnMiss(t *testing.T) {
	rdb := newFakeRedis()
	c := newTestCache(rdb)

	var calls int32
	compute := func(context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte(`{"v":1}`), nil
	}

	out, err := c.GetOrCompute(context.Background(), "countries", "view:iclr:2025:countries", compute)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(out))
	assert.Equal(t, int32(1), calls)
	assert.Contains(t, rdb.data, "indiaml:view:iclr:2025:countries")

	// Second call must be served from the cache.
	out, err = c.GetOrCompute(context.Background(), "countries", "view:iclr:2025:countries", compute)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(out))
	assert.Equal(t, int32(1), calls)
}

func TestGetOrComputeDegradesOnRedisError(t *testing.T) {
	rdb := newFakeRedis()
	rdb.getErr = assert.AnError
	rdb.setErr = assert.AnError
	c := newTestCache(rdb)

	out, err := c.GetOrCompute(context.Background(), "summary", "view:iclr:2025:summary", func(context.Context) ([]byte, error) {
		return []byte("ok"), nil
	})
	require.NoError(t, err, "redis failures must not fail the request")
	assert.Equal(t, "ok", string(out))
}

func TestGetOrComputePropagatesComputeError(t *testing.T) {
	c := newTestCache(newFakeRedis())

	_, err := c.GetOrCompute(context.Background(), "summary", "k", func(context.Context) ([]byte, error) {
		return nil, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestGetOrComputeCollapsesConcurrentMisses(t *testing.T) {
	c := newTestCache(newFakeRedis())

	var calls int32
	release := make(chan struct{})
	compute := func(context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []byte("x"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := c.GetOrCompute(context.Background(), "v", "k", compute)
			assert.NoError(t, err)
			assert.Equal(t, "x", string(out))
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls, "concurrent misses must share one computation")
}

func TestInvalidateDeletesMatchingKeys(t *testing.T) {
	rdb := newFakeRedis()
	rdb.data["indiaml:view:iclr:2025:countries"] = "a"
	rdb.data["indiaml:view:iclr:2025:summary"] = "b"
	rdb.data["indiaml:view:neurips:2024:summary"] = "c"
	c := newTestCache(rdb)

	n, err := c.Invalidate(context.Background(), "view:iclr:2025:*")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, rdb.data, "indiaml:view:neurips:2024:summary")
	assert.NotContains(t, rdb.data, "indiaml:view:iclr:2025:countries")
}

func TestCacheMetrics(t *testing.T) {
	m := prometheus.NewMetrics(prometheus.Options{Namespace: "test"})
	rdb := newFakeRedis()
	c := NewViewCache(rdb, "indiaml:", time.Minute, logging.NewNopLogger(), m)

	compute := func(context.Context) ([]byte, error) { return []byte("x"), nil }
	_, err := c.GetOrCompute(context.Background(), "countries", "k", compute)
	require.NoError(t, err)
	_, err = c.GetOrCompute(context.Background(), "countries", "k", compute)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues("countries")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("countries")))
}

func TestNopCache(t *testing.T) {
	var c Cache = NopCache{}

	out, err := c.GetOrCompute(context.Background(), "v", "k", func(context.Context) ([]byte, error) {
		return []byte("direct"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", string(out))

	n, err := c.Invalidate(context.Background(), "*")
	require.NoError(t, err)
	assert.Zero(t, n)
}

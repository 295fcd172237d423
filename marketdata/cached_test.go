package marketdata

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finassist/finassist/internal/cache"
	"github.com/finassist/finassist/internal/metrics"
)

// countingProvider 记录回源次数的假数据源
type countingProvider struct {
	calls  atomic.Int64
	points []Point
	err    error
}

func (p *countingProvider) DailySeries(ctx context.Context, symbol string) ([]Point, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return p.points, nil
}

func (p *countingProvider) Name() string { return "counting" }

func TestCachedProviderCachesSeries(t *testing.T) {
	t.Parallel()

	inner := &countingProvider{points: SyntheticSeries(5, time.Now())}
	cached := NewCachedProvider(inner, cache.NewMemory(time.Minute), time.Minute, nil, zap.NewNop())

	ctx := context.Background()
	first, err := cached.DailySeries(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, first, 5)

	second, err := cached.DailySeries(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(1), inner.calls.Load())

	// JSON 往返后价格不变
	for i := range first {
		assert.InDelta(t, first[i].Close, second[i].Close, 1e-9)
	}
}

func TestCachedProviderDistinctSymbols(t *testing.T) {
	t.Parallel()

	inner := &countingProvider{points: SyntheticSeries(5, time.Now())}
	cached := NewCachedProvider(inner, cache.NewMemory(time.Minute), time.Minute, nil, zap.NewNop())

	ctx := context.Background()
	_, err := cached.DailySeries(ctx, "AAPL")
	require.NoError(t, err)
	_, err = cached.DailySeries(ctx, "MSFT")
	require.NoError(t, err)

	assert.Equal(t, int64(2), inner.calls.Load())
}

func TestCachedProviderUnavailableNotCached(t *testing.T) {
	t.Parallel()

	inner := &countingProvider{points: nil}
	cached := NewCachedProvider(inner, cache.NewMemory(time.Minute), time.Minute, nil, zap.NewNop())

	ctx := context.Background()
	points, err := cached.DailySeries(ctx, "ZZZZ")
	require.NoError(t, err)
	assert.Nil(t, points)

	_, err = cached.DailySeries(ctx, "ZZZZ")
	require.NoError(t, err)

	// (nil, nil) 不进缓存,每次都重试真实数据源
	assert.Equal(t, int64(2), inner.calls.Load())
}

func TestCachedProviderConcurrentFetchCollapsed(t *testing.T) {
	t.Parallel()

	inner := &countingProvider{points: SyntheticSeries(3, time.Now())}
	cached := NewCachedProvider(inner, cache.NewMemory(time.Minute), time.Minute, nil, zap.NewNop())

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cached.DailySeries(ctx, "SPY")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// singleflight 合并并发回源;缓存命中后不再回源
	assert.LessOrEqual(t, inner.calls.Load(), int64(8))
	assert.GreaterOrEqual(t, inner.calls.Load(), int64(1))
}

func TestCachedProviderRecordsCacheMetrics(t *testing.T) {
	t.Parallel()

	collector := metrics.NewCollector("market_cache_metrics", zap.NewNop())
	inner := &countingProvider{points: SyntheticSeries(5, time.Now())}
	cached := NewCachedProvider(inner, cache.NewMemory(time.Minute), time.Minute, collector, zap.NewNop())

	ctx := context.Background()
	_, err := cached.DailySeries(ctx, "AAPL")
	require.NoError(t, err)
	_, err = cached.DailySeries(ctx, "AAPL")
	require.NoError(t, err)

	// 第一次未命中,第二次命中,各产生一条序列
	count, err := testutil.GatherAndCount(prometheus.DefaultGatherer,
		"market_cache_metrics_cache_hits_total",
		"market_cache_metrics_cache_misses_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

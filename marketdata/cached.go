package marketdata

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/finassist/finassist/internal/cache"
	"github.com/finassist/finassist/internal/metrics"
)

// cachedSeries 缓存载荷,带抓取时间以便排错
type cachedSeries struct {
	FetchedAt time.Time `json:"fetched_at"`
	Points    []Point   `json:"points"`
}

// CachedProvider 用 TTL 缓存包装数据源,并用 singleflight 合并
// 同一代码的并发抓取。不可用结果 (nil, nil) 不进缓存,下次调用
// 会再次尝试真实数据源。
type CachedProvider struct {
	inner   Provider
	store   cache.Store
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewCachedProvider 创建缓存装饰器。ttl <= 0 时使用 10 分钟,
// collector 可为 nil。
func NewCachedProvider(inner Provider, store cache.Store, ttl time.Duration, collector *metrics.Collector, logger *zap.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProvider{
		inner:   inner,
		store:   store,
		ttl:     ttl,
		metrics: collector,
		logger:  logger.With(zap.String("component", "market_cache")),
	}
}

func (c *CachedProvider) Name() string { return c.inner.Name() }

// DailySeries 先查缓存,未命中时经 singleflight 回源并写回。
// 缓存读写失败只记日志,不影响回源结果。
func (c *CachedProvider) DailySeries(ctx context.Context, symbol string) ([]Point, error) {
	key := fmt.Sprintf("market:%s:daily", symbol)

	var entry cachedSeries
	if err := c.store.GetJSON(ctx, key, &entry); err == nil {
		c.logger.Debug("market cache hit", zap.String("symbol", symbol))
		if c.metrics != nil {
			c.metrics.RecordCacheHit("market")
		}
		return entry.Points, nil
	} else if !cache.IsCacheMiss(err) {
		c.logger.Warn("market cache read failed", zap.String("key", key), zap.Error(err))
	} else if c.metrics != nil {
		c.metrics.RecordCacheMiss("market")
	}

	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		points, err := c.inner.DailySeries(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if points != nil {
			entry := cachedSeries{FetchedAt: time.Now(), Points: points}
			if err := c.store.SetJSON(ctx, key, entry, c.ttl); err != nil {
				c.logger.Warn("market cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return points, nil
	})
	if err != nil {
		return nil, err
	}

	points, _ := result.([]Point)
	return points, nil
}

var _ Provider = (*CachedProvider)(nil)

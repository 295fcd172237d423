package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finassist/finassist/internal/metrics"
	"github.com/finassist/finassist/marketdata"
)

// stubMarketData 固定序列的行情源替身
type stubMarketData struct {
	series []marketdata.Point
	err    error
}

func (s *stubMarketData) DailySeries(ctx context.Context, symbol string) ([]marketdata.Point, error) {
	return s.series, s.err
}

func (s *stubMarketData) Name() string { return "stub" }

func runMarket(t *testing.T, provider marketdata.Provider, query string) *MarketResult {
	t.Helper()
	a := NewMarket(provider, nil, zap.NewNop())
	result, err := a.Run(context.Background(), NewState(query))
	require.NoError(t, err)
	mr, ok := result.(*MarketResult)
	require.True(t, ok)
	return mr
}

func TestMarketRealSeries(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	series := make([]marketdata.Point, 40)
	for i := range series {
		series[i] = marketdata.Point{Date: base.AddDate(0, 0, i), Close: 100 + float64(i)}
	}

	result := runMarket(t, &stubMarketData{series: series}, "show me the price chart for AAPL")

	assert.Equal(t, "AAPL", result.Symbol)
	assert.Equal(t, "1mo", result.Period)
	assert.False(t, result.Synthetic)

	// 1mo → 最后 30 个点
	require.Len(t, result.Points, 30)
	assert.InDelta(t, 110.0, result.Points[0].Close, 1e-9)
	assert.InDelta(t, 139.0, result.Points[29].Close, 1e-9)

	wantPct := (139.0 - 110.0) / 110.0 * 100.0
	assert.InDelta(t, wantPct, result.ChangePct, 1e-9)
	assert.Contains(t, result.AnswerText, "Ticker: **AAPL**")
	assert.Contains(t, result.AnswerText, "up")
}

func TestMarketSyntheticFallbackOnUnavailable(t *testing.T) {
	t.Parallel()

	result := runMarket(t, &stubMarketData{series: nil}, "price trend for ZZZZ for 5d")

	assert.True(t, result.Synthetic)
	assert.Equal(t, "ZZZZ", result.Symbol)
	assert.Equal(t, "5d", result.Period)
	require.Len(t, result.Points, 6)
	assert.InDelta(t, 100.0, result.Points[0].Close, 1e-9)
	assert.Positive(t, result.ChangePct)
}

func TestMarketSyntheticFallbackOnError(t *testing.T) {
	t.Parallel()

	result := runMarket(t, &stubMarketData{err: errors.New("provider down")}, "stock chart MSFT")

	// 行情路径静默降级,不上抛错误
	assert.True(t, result.Synthetic)
	assert.Equal(t, "MSFT", result.Symbol)
	assert.NotEmpty(t, result.Points)
}

func TestMarketRecordsUpstreamFailure(t *testing.T) {
	t.Parallel()

	collector := metrics.NewCollector("market_agent_metrics", zap.NewNop())
	a := NewMarket(&stubMarketData{err: errors.New("provider down")}, collector, zap.NewNop())

	result, err := a.Run(context.Background(), NewState("stock chart MSFT"))
	require.NoError(t, err)
	assert.True(t, result.(*MarketResult).Synthetic)

	// 一条上游失败计数 + 一条合成回退计数
	count, err := testutil.GatherAndCount(prometheus.DefaultGatherer,
		"market_agent_metrics_upstream_failures_total",
		"market_agent_metrics_synthetic_fallbacks_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMarketDefaults(t *testing.T) {
	t.Parallel()

	result := runMarket(t, &stubMarketData{}, "how is the market doing")

	assert.Equal(t, "SPY", result.Symbol)
	assert.Equal(t, "1mo", result.Period)
	assert.Len(t, result.Points, 30)
}

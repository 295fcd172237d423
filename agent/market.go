package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/finassist/finassist/internal/metrics"
	"github.com/finassist/finassist/marketdata"
)

// Market 行情 agent。从自由文本里解析代码与周期,优先取真实日线。
// 数据源缺失或出错时确定性地回退到合成序列并明确标注,保证面板
// 始终有图可画。这是市场路径独有的降级策略,问答路径不降级。
type Market struct {
	provider marketdata.Provider
	metrics  *metrics.Collector
	logger   *zap.Logger
	now      func() time.Time
}

// NewMarket 创建行情 agent。collector 可为 nil。
func NewMarket(provider marketdata.Provider, collector *metrics.Collector, logger *zap.Logger) *Market {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Market{
		provider: provider,
		metrics:  collector,
		logger:   logger.With(zap.String("agent", "market")),
		now:      time.Now,
	}
}

func (a *Market) Name() string { return "market" }

// Run 执行一次行情查询
func (a *Market) Run(ctx context.Context, state *State) (Result, error) {
	symbol := marketdata.ExtractSymbol(state.UserQuery)
	period := marketdata.ExtractPeriod(state.UserQuery)
	points := marketdata.PointsForPeriod(period)

	fetchedAt := a.now()

	series, err := a.provider.DailySeries(ctx, symbol)
	if err != nil {
		a.logger.Warn("market data fetch failed, falling back to synthetic",
			zap.String("symbol", symbol), zap.Error(err))
		if a.metrics != nil {
			a.metrics.RecordUpstreamFailure(a.provider.Name(), upstreamCode(err))
		}
		series = nil
	}

	synthetic := false
	if len(series) == 0 {
		series = marketdata.SyntheticSeries(points, fetchedAt)
		synthetic = true
		if a.metrics != nil {
			a.metrics.RecordSyntheticFallback()
		}
	} else {
		series = marketdata.Tail(series, points)
	}

	start := series[0].Close
	end := series[len(series)-1].Close
	pct := 0.0
	if start != 0 {
		pct = (end - start) / start * 100.0
	}
	direction := "up"
	if pct < 0 {
		direction = "down"
	}

	answer := fmt.Sprintf(
		"**Market Snapshot (Education Only)**\n\n"+
			"Ticker: **%s**\n"+
			"Period: **%s**\n"+
			"Period trend: **%s (%.2f%%)**\n"+
			"Start Close: **%.2f**\n"+
			"End Close: **%.2f**\n\n"+
			"Educational note: Trends describe past movement; they do not predict future performance.",
		symbol, period, direction, pct, start, end)

	return &MarketResult{
		AnswerText: answer,
		Symbol:     symbol,
		Period:     period,
		Points:     series,
		FetchedAt:  fetchedAt,
		Synthetic:  synthetic,
		ChangePct:  pct,
	}, nil
}

var _ Agent = (*Market)(nil)

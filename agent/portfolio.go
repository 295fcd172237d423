package agent

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Portfolio 持仓分析 agent。对调用方持仓(缺省为演示持仓)计算
// 配置比例、最大持仓与分散度得分。金额运算走 decimal,
// 分散度(HHI)在比例上做浮点即可。
type Portfolio struct {
	logger *zap.Logger
}

// NewPortfolio 创建持仓 agent
func NewPortfolio(logger *zap.Logger) *Portfolio {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Portfolio{logger: logger.With(zap.String("agent", "portfolio"))}
}

func (a *Portfolio) Name() string { return "portfolio" }

// DemoHoldings 演示持仓,调用方未提供持仓时使用。
func DemoHoldings() []Holding {
	return []Holding{
		{Asset: "MSFT", Value: decimal.NewFromFloat(2000), Class: "Equity"},
		{Asset: "AAPL", Value: decimal.NewFromFloat(1500), Class: "Equity"},
		{Asset: "SPY", Value: decimal.NewFromFloat(1800), Class: "ETF"},
		{Asset: "BND", Value: decimal.NewFromFloat(1000), Class: "Bond ETF"},
	}
}

// Run 执行一次持仓分析
func (a *Portfolio) Run(ctx context.Context, state *State) (Result, error) {
	holdings := state.Holdings
	if len(holdings) == 0 {
		holdings = DemoHoldings()
	}

	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(h.Value)
	}

	hundred := decimal.NewFromInt(100)
	rows := make([]AllocationRow, len(holdings))
	topIdx := 0
	uniqueAssets := make(map[string]struct{})
	uniqueClasses := make(map[string]struct{})

	for i, h := range holdings {
		pct := decimal.Zero
		if total.IsPositive() {
			pct = h.Value.Div(total).Mul(hundred).Round(2)
		}
		rows[i] = AllocationRow{Holding: h, AllocationPct: pct}

		if h.Value.GreaterThan(holdings[topIdx].Value) {
			topIdx = i
		}
		uniqueAssets[h.Asset] = struct{}{}
		uniqueClasses[h.Class] = struct{}{}
	}

	score := diversificationScore(holdings, total)

	summary := PortfolioSummary{
		TotalValue:           total,
		TopAsset:             holdings[topIdx].Asset,
		TopPct:               rows[topIdx].AllocationPct,
		UniqueAssets:         len(uniqueAssets),
		AssetClasses:         len(uniqueClasses),
		DiversificationScore: score,
	}

	topPctF, _ := summary.TopPct.Float64()
	answer := fmt.Sprintf(
		"**Portfolio Summary (Education Only)**\n\n"+
			"- Total value: **$%s**\n"+
			"- Largest holding: **%s** (%.1f%%)\n"+
			"- Unique assets: **%d**\n"+
			"- Unique asset classes: **%d**\n"+
			"- Diversification score (0-100): **%.1f**\n\n"+
			"Tip: Diversification tends to improve when allocation is spread across multiple assets/classes "+
			"and no single holding dominates.",
		total.StringFixed(2), summary.TopAsset, topPctF,
		summary.UniqueAssets, summary.AssetClasses, score)

	return &PortfolioResult{
		AnswerText: answer,
		Rows:       rows,
		Summary:    summary,
	}, nil
}

// diversificationScore 100 × (1 − HHI),HHI 为配置比例平方和。
// 单一持仓得 0,均匀分散趋近 100×(1−1/N);结果并入 [0, 100]。
func diversificationScore(holdings []Holding, total decimal.Decimal) float64 {
	if !total.IsPositive() {
		return 0
	}

	totalF, _ := total.Float64()
	hhi := 0.0
	for _, h := range holdings {
		v, _ := h.Value.Float64()
		w := v / totalF
		hhi += w * w
	}

	score := (1.0 - hhi) * 100.0
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

var _ Agent = (*Portfolio)(nil)

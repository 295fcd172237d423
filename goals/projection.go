// Package goals implements savings-goal math and the persistent goal registry.
//
// 预测模型固定为逐月复利:balance = balance*(1+r) + contribution,
// r 为月利率(年化/12)。所有口径与展示层一致,不做日内复利。
package goals

import (
	"fmt"
	"math"
)

// Point 单月余额
type Point struct {
	Month   int     `json:"month"`
	Balance float64 `json:"balance"`
}

// Projection 生成 months+1 个点的逐月复利序列,Month 0 为起始余额,
// 之后每月先计息再追加定投。
func Projection(start, contribution float64, months int, annualPct float64) []Point {
	if months < 0 {
		months = 0
	}
	r := (annualPct / 100.0) / 12.0

	points := make([]Point, 0, months+1)
	balance := start
	for m := 0; m <= months; m++ {
		points = append(points, Point{Month: m, Balance: balance})
		balance = balance*(1.0+r) + contribution
	}
	return points
}

// ReachMonth 返回余额首次达到目标的月份。目标不超过起始余额时
// 即为 Month 0;序列内未达到时返回 (0, false)。
func ReachMonth(points []Point, target float64) (int, bool) {
	for _, p := range points {
		if p.Balance >= target {
			return p.Month, true
		}
	}
	return 0, false
}

// RequiredContribution 求达成目标所需的月定投额(年金公式)。
// 月利率数值上为零时退化为线性均摊,避免除零;结果不低于 0。
func RequiredContribution(current, target float64, months int, annualPct float64) (float64, error) {
	if months <= 0 {
		return 0, fmt.Errorf("months must be positive, got %d", months)
	}
	r := (annualPct / 100.0) / 12.0

	if math.Abs(r) < 1e-9 {
		return math.Max(0, (target-current)/float64(months)), nil
	}

	growth := math.Pow(1.0+r, float64(months))
	pmt := (target - current*growth) * r / (growth - 1.0)
	return math.Max(0, pmt), nil
}

package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/finassist/finassist/goals"
)

const goalsDisclaimer = "Educational projection only. Not financial advice."

// Goals 目标测算 agent。对话口径从 0 余额起投(注册表里已存目标的
// 规划口径从当前余额起步,见 goals.Goal.Schedule)。
type Goals struct {
	logger *zap.Logger
}

// NewGoals 创建目标 agent
func NewGoals(logger *zap.Logger) *Goals {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Goals{logger: logger.With(zap.String("agent", "goals"))}
}

func (a *Goals) Name() string { return "goals" }

// Run 执行一次目标测算。入参缺省为 10000 目标 / 12 个月 /
// 每月 500 / 年化 5%,非法值夹到合法域。
func (a *Goals) Run(ctx context.Context, state *State) (Result, error) {
	req := GoalRequest{
		TargetAmount:        10000,
		Months:              12,
		MonthlyContribution: 500,
		AnnualReturnPct:     5,
	}
	if state.GoalRequest != nil {
		req = *state.GoalRequest
	}

	if req.Months < 1 {
		req.Months = 1
	}
	if req.TargetAmount < 0 {
		req.TargetAmount = 0
	}
	if req.MonthlyContribution < 0 {
		req.MonthlyContribution = 0
	}
	if req.AnnualReturnPct < 0 {
		req.AnnualReturnPct = 0
	}

	schedule := goals.Projection(0, req.MonthlyContribution, req.Months, req.AnnualReturnPct)
	reachMonth, reached := goals.ReachMonth(schedule, req.TargetAmount)

	status := "Projection does not reach the target within the selected time horizon."
	if reached {
		status = fmt.Sprintf("Estimated target reached around **Month %d** (projection).", reachMonth)
	}

	answer := fmt.Sprintf(
		"**Goal Projection (Education Only)**\n\n"+
			"- Target: **$%.2f**\n"+
			"- Time horizon: **%d months**\n"+
			"- Monthly contribution: **$%.2f**\n"+
			"- Expected annual return: **%.2f%%**\n\n"+
			"%s\n\n"+
			"Tip: Increasing monthly contributions or extending the time horizon can help. "+
			"Returns are not guaranteed.\n\n"+
			"%s",
		req.TargetAmount, req.Months, req.MonthlyContribution, req.AnnualReturnPct,
		status, goalsDisclaimer)

	return &GoalsResult{
		AnswerText: answer,
		Request:    req,
		Schedule:   schedule,
		ReachMonth: reachMonth,
		Reached:    reached,
	}, nil
}

var _ Agent = (*Goals)(nil)

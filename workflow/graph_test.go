package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finassist/finassist/agent"
)

// recordingAgent 记录调用并返回固定结果
type recordingAgent struct {
	name   string
	result agent.Result
	err    error
	called bool
}

func (a *recordingAgent) Name() string { return a.name }

func (a *recordingAgent) Run(ctx context.Context, state *agent.State) (agent.Result, error) {
	a.called = true
	return a.result, a.err
}

func setupGraph(agents ...*recordingAgent) (*Graph, *agent.Registry) {
	registry := agent.NewRegistry()
	for _, a := range agents {
		registry.Register(a)
	}
	return NewGraph(registry, nil, zap.NewNop()), registry
}

func TestGraphRoutesToMarket(t *testing.T) {
	t.Parallel()

	market := &recordingAgent{name: "market", result: &agent.MarketResult{AnswerText: "snapshot", Symbol: "AAPL"}}
	qa := &recordingAgent{name: "finance_qa", result: &agent.QAResult{AnswerText: "general"}}
	graph, _ := setupGraph(market, qa)

	state := agent.NewState("show me the price chart for AAPL")
	require.NoError(t, graph.Run(context.Background(), state))

	assert.True(t, market.called)
	assert.False(t, qa.called)
	assert.Equal(t, "market", state.Intent)
	assert.Equal(t, "market", state.AgentName)
	assert.Equal(t, "snapshot", state.Answer)
	require.NotNil(t, state.Market)
	assert.Equal(t, "AAPL", state.Market.Symbol)
}

func TestGraphDefaultsToFinanceQA(t *testing.T) {
	t.Parallel()

	qa := &recordingAgent{name: "finance_qa", result: &agent.QAResult{
		AnswerText: "an ETF is...", SourceLabels: []string{"[1] etf.md"},
	}}
	graph, _ := setupGraph(qa)

	state := agent.NewState("what is an ETF")
	require.NoError(t, graph.Run(context.Background(), state))

	assert.Equal(t, "finance_qa", state.Intent)
	assert.Equal(t, "an ETF is...", state.Answer)
	assert.Equal(t, []string{"[1] etf.md"}, state.Sources)
}

func TestGraphUnknownIntentFallsBack(t *testing.T) {
	t.Parallel()

	// market 意图无对应 agent → 回落 finance_qa,AgentName 记录实际执行者
	qa := &recordingAgent{name: "finance_qa", result: &agent.QAResult{AnswerText: "fallback"}}
	graph, _ := setupGraph(qa)

	state := agent.NewState("price chart for AAPL")
	require.NoError(t, graph.Run(context.Background(), state))

	assert.Equal(t, "market", state.Intent)
	assert.Equal(t, "finance_qa", state.AgentName)
	assert.True(t, qa.called)
}

func TestGraphSurfacesAgentFailure(t *testing.T) {
	t.Parallel()

	qa := &recordingAgent{name: "finance_qa", err: errors.New("UPSTREAM_ERROR: model overloaded")}
	graph, _ := setupGraph(qa)

	state := agent.NewState("what is an ETF")
	err := graph.Run(context.Background(), state)
	require.Error(t, err)

	// 失败原文作为答案,意图不被替换
	assert.Equal(t, "UPSTREAM_ERROR: model overloaded", state.Answer)
	assert.Equal(t, "finance_qa", state.Intent)
	assert.Nil(t, state.Sources)
}

func TestGraphNoAgents(t *testing.T) {
	t.Parallel()

	graph := NewGraph(agent.NewRegistry(), nil, zap.NewNop())
	err := graph.Run(context.Background(), agent.NewState("anything"))
	assert.Error(t, err)
}

func TestGraphIndependentStates(t *testing.T) {
	t.Parallel()

	qa := &recordingAgent{name: "finance_qa", result: &agent.QAResult{AnswerText: "a"}}
	graph, _ := setupGraph(qa)

	s1 := agent.NewState("what is an ETF")
	s2 := agent.NewState("what is a bond")
	require.NoError(t, graph.Run(context.Background(), s1))
	require.NoError(t, graph.Run(context.Background(), s2))

	assert.NotEqual(t, s1.RequestID, s2.RequestID)
	assert.Equal(t, "what is an ETF", s1.UserQuery)
	assert.Equal(t, "what is a bond", s2.UserQuery)
}

package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateAssignsRequestID(t *testing.T) {
	t.Parallel()

	a := NewState("what is an ETF")
	b := NewState("what is an ETF")

	assert.NotEmpty(t, a.RequestID)
	assert.NotEqual(t, a.RequestID, b.RequestID)
	assert.Equal(t, "what is an ETF", a.UserQuery)
}

func TestStateApplyQAResult(t *testing.T) {
	t.Parallel()

	state := NewState("q")
	result := &QAResult{AnswerText: "answer", SourceLabels: []string{"[1] etf.md"}}
	state.Apply(result)

	assert.Equal(t, "answer", state.Answer)
	assert.Equal(t, []string{"[1] etf.md"}, state.Sources)
	assert.Same(t, result, state.QA)
	assert.Nil(t, state.Market)
}

func TestStateApplyMarketResult(t *testing.T) {
	t.Parallel()

	state := NewState("q")
	result := &MarketResult{AnswerText: "snapshot", Symbol: "AAPL", Synthetic: true}
	state.Apply(result)

	assert.Equal(t, "snapshot", state.Answer)
	assert.Nil(t, state.Sources)
	assert.Same(t, result, state.Market)
}

func TestStateApplyNil(t *testing.T) {
	t.Parallel()

	state := NewState("q")
	state.Answer = "previous"
	state.Apply(nil)
	assert.Equal(t, "previous", state.Answer)
}

func TestRegistryFallsBackToFinanceQA(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()

	fallback := &stubAgent{name: DefaultAgentName}
	registry.Register(fallback)
	registry.Register(&stubAgent{name: "market"})

	assert.Equal(t, "market", registry.Get("market").Name())
	assert.Equal(t, DefaultAgentName, registry.Get("unknown").Name())
	assert.ElementsMatch(t, []string{"finance_qa", "market"}, registry.Names())
}

func TestRegistryEmptyReturnsNil(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	assert.Nil(t, registry.Get("anything"))
}

// stubAgent 固定返回的假 agent
type stubAgent struct {
	name   string
	result Result
	err    error
}

func (s *stubAgent) Name() string { return s.name }

func (s *stubAgent) Run(ctx context.Context, state *State) (Result, error) {
	return s.result, s.err
}

func TestStubAgentCompliance(t *testing.T) {
	t.Parallel()
	var _ Agent = (*stubAgent)(nil)

	result, err := (&stubAgent{name: "x", result: &QAResult{AnswerText: "ok"}}).Run(context.Background(), NewState("q"))
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Answer())
}

package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/finassist/finassist/internal/metrics"
	"github.com/finassist/finassist/internal/telemetry"
	"github.com/finassist/finassist/llm"
	"github.com/finassist/finassist/rag"
	"github.com/finassist/finassist/types"
)

const financeQASystemPrompt = "You are a finance education assistant. " +
	"Provide general educational information only. " +
	"Do not give personalized financial advice."

const financeQAUserTemplate = `Answer the QUESTION using:
1) The CONTEXT (knowledge base) as the primary source.
2) If the context is incomplete, you MAY add helpful general finance explanation from your own knowledge.

CITATIONS RULE:
- Add citations like [1], [2] ONLY for statements supported by the CONTEXT.
- Do NOT invent citations.
- If you add general knowledge, do not cite it.

OUTPUT FORMAT:
- Start with a short answer (2–4 sentences).
- Then give 3-6 bullet points with simple explanation.
- End with a one-line disclaimer.

CONTEXT (KB):
%s

QUESTION:
%s`

// Retriever 检索接口,便于测试替身。
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]rag.Hit, error)
}

// FinanceQAConfig finance_qa agent 配置
type FinanceQAConfig struct {
	Model       string
	Temperature float32
	TopK        int
	// TokenBudget 上下文 token 预算,超出时按名次截断命中。
	TokenBudget int
}

// FinanceQA 知识库问答 agent:检索 → 拼上下文 → 低温生成。
// 生成调用失败原样上抛,由编排层把错误文本呈给用户,不做兜底答案。
type FinanceQA struct {
	retriever Retriever
	provider  llm.Provider
	counter   rag.TokenCounter
	config    FinanceQAConfig
	metrics   *metrics.Collector
	logger    *zap.Logger
}

// NewFinanceQA 创建 finance_qa agent。collector 可为 nil。
func NewFinanceQA(retriever Retriever, provider llm.Provider, counter rag.TokenCounter, config FinanceQAConfig, collector *metrics.Collector, logger *zap.Logger) *FinanceQA {
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.Temperature == 0 {
		config.Temperature = 0.2
	}
	if config.TopK <= 0 {
		config.TopK = rag.DefaultTopK
	}
	if config.TokenBudget <= 0 {
		config.TokenBudget = 3000
	}
	if counter == nil {
		counter = rag.EstimatorCounter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinanceQA{
		retriever: retriever,
		provider:  provider,
		counter:   counter,
		config:    config,
		metrics:   collector,
		logger:    logger.With(zap.String("agent", "finance_qa")),
	}
}

func (a *FinanceQA) Name() string { return "finance_qa" }

// Run 执行一次问答
func (a *FinanceQA) Run(ctx context.Context, state *State) (Result, error) {
	question := strings.TrimSpace(state.UserQuery)
	if question == "" {
		return &QAResult{AnswerText: "Please ask a question."}, nil
	}

	retrieveCtx, retrieveSpan := telemetry.StartSpan(ctx, "retrieve")
	retrieveStart := time.Now()
	hits, err := a.retriever.Retrieve(retrieveCtx, question, a.config.TopK)
	retrieveSpan.End()
	if err != nil {
		if a.metrics != nil {
			a.metrics.RecordRetrieval("error", time.Since(retrieveStart))
			a.metrics.RecordUpstreamFailure("embedding", upstreamCode(err))
		}
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	if a.metrics != nil {
		a.metrics.RecordRetrieval("ok", time.Since(retrieveStart))
	}

	hits = rag.TruncateHitsByTokens(hits, a.counter, a.config.TokenBudget)
	context := rag.BuildContext(hits)
	sources := rag.HitsToSources(hits)
	contextTokens := a.counter.CountTokens(context)
	if a.metrics != nil {
		a.metrics.RecordContextTokens(contextTokens)
	}

	a.logger.Debug("context assembled",
		zap.Int("hits", len(hits)),
		zap.Int("context_tokens", contextTokens))

	generateCtx, generateSpan := telemetry.StartSpan(ctx, "generate")
	resp, err := a.provider.Chat(generateCtx, &llm.ChatRequest{
		Model: a.config.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: financeQASystemPrompt},
			{Role: llm.RoleUser, Content: fmt.Sprintf(financeQAUserTemplate, context, question)},
		},
		Temperature: a.config.Temperature,
	})
	generateSpan.End()
	if err != nil {
		if a.metrics != nil {
			a.metrics.RecordUpstreamFailure("chat", upstreamCode(err))
		}
		return nil, err
	}

	return &QAResult{
		AnswerText:    resp.Text(),
		SourceLabels:  sources,
		ContextTokens: contextTokens,
	}, nil
}

// upstreamCode 把错误映射成指标用的失败码,非结构化错误归 UNKNOWN。
func upstreamCode(err error) string {
	if code := types.CodeOf(err); code != "" {
		return string(code)
	}
	return "UNKNOWN"
}

var _ Agent = (*FinanceQA)(nil)

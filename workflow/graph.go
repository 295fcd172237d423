package workflow

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/finassist/finassist/agent"
	"github.com/finassist/finassist/internal/metrics"
	"github.com/finassist/finassist/internal/telemetry"
)

// =============================================================================
// 🔀 两节点编排图
// =============================================================================

// Graph 两节点状态机:Router(入口)→ RunAgent(终点)。
// 无分支无循环无重试,失败处理完全下放给各 agent;agent 报错时
// 错误文本原样写入 state.Answer,绝不换一个意图重试。
type Graph struct {
	registry *agent.Registry
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// NewGraph 创建编排图。collector 可为 nil。
func NewGraph(registry *agent.Registry, collector *metrics.Collector, logger *zap.Logger) *Graph {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Graph{
		registry: registry,
		metrics:  collector,
		logger:   logger.With(zap.String("component", "workflow")),
	}
}

// Run 同步跑完一次请求:路由意图 → 执行 agent → 合并结果。
// state 为每请求独享,过程中无并发修改。
func (g *Graph) Run(ctx context.Context, state *agent.State) error {
	ctx, span := telemetry.StartSpan(ctx, "request")
	span.SetAttributes(attribute.String("request_id", state.RequestID))
	defer span.End()

	start := time.Now()

	// ---- Router 节点 ----
	_, routeSpan := telemetry.StartSpan(ctx, "route")
	intent := RouteIntent(state.UserQuery)
	state.Intent = string(intent)
	state.AgentName = string(intent)
	routeSpan.SetAttributes(attribute.String("intent", string(intent)))
	routeSpan.End()

	// ---- RunAgent 节点 ----
	responder := g.registry.Get(state.AgentName)
	if responder == nil {
		return fmt.Errorf("no agent registered for intent %q", state.AgentName)
	}
	// 未知名字回落后记录实际执行者
	state.AgentName = responder.Name()

	agentCtx, agentSpan := telemetry.StartSpan(ctx, "run_agent")
	agentSpan.SetAttributes(attribute.String("agent", responder.Name()))
	agentStart := time.Now()
	result, err := responder.Run(agentCtx, state)
	agentDuration := time.Since(agentStart)
	agentSpan.End()

	if err != nil {
		if g.metrics != nil {
			g.metrics.RecordAgentExecution(responder.Name(), "error", agentDuration)
			g.metrics.RecordRequest(string(intent), "error", time.Since(start))
		}
		g.logger.Error("agent failed",
			zap.String("request_id", state.RequestID),
			zap.String("agent", responder.Name()),
			zap.Error(err))

		// 失败原文直接作为答案呈现,意图保持不变
		state.Answer = err.Error()
		state.Sources = nil
		return err
	}

	state.Apply(result)

	if g.metrics != nil {
		g.metrics.RecordAgentExecution(responder.Name(), "ok", agentDuration)
		g.metrics.RecordRequest(string(intent), "ok", time.Since(start))
	}
	g.logger.Info("request completed",
		zap.String("request_id", state.RequestID),
		zap.String("intent", string(intent)),
		zap.String("agent", responder.Name()),
		zap.Duration("duration", time.Since(start)))

	return nil
}

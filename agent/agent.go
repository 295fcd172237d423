package agent

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finassist/finassist/goals"
	"github.com/finassist/finassist/llm"
	"github.com/finassist/finassist/marketdata"
)

// Agent 响应者统一接口。实现之间相互独立,可单独替换。
type Agent interface {
	Name() string
	Run(ctx context.Context, state *State) (Result, error)
}

// Result 一次 agent 执行的结果。具体类型按意图分型。
type Result interface {
	Answer() string
	Sources() []string
}

// =============================================================================
// 📦 分型结果
// =============================================================================

// QAResult 知识库问答结果
type QAResult struct {
	AnswerText    string   `json:"answer"`
	SourceLabels  []string `json:"sources"`
	ContextTokens int      `json:"context_tokens"`
}

func (r *QAResult) Answer() string    { return r.AnswerText }
func (r *QAResult) Sources() []string { return r.SourceLabels }

// MarketResult 行情结果
type MarketResult struct {
	AnswerText string             `json:"answer"`
	Symbol     string             `json:"symbol"`
	Period     string             `json:"period"`
	Points     []marketdata.Point `json:"points"`
	FetchedAt  time.Time          `json:"fetched_at"`
	Synthetic  bool               `json:"synthetic"`
	ChangePct  float64            `json:"change_pct"`
}

func (r *MarketResult) Answer() string    { return r.AnswerText }
func (r *MarketResult) Sources() []string { return nil }

// Holding 持仓条目
type Holding struct {
	Asset string          `json:"asset"`
	Value decimal.Decimal `json:"value"`
	Class string          `json:"class"`
}

// AllocationRow 含配置比例的持仓行
type AllocationRow struct {
	Holding
	AllocationPct decimal.Decimal `json:"allocation_pct"`
}

// PortfolioSummary 持仓汇总
type PortfolioSummary struct {
	TotalValue           decimal.Decimal `json:"total_value"`
	TopAsset             string          `json:"top_asset"`
	TopPct               decimal.Decimal `json:"top_pct"`
	UniqueAssets         int             `json:"unique_assets"`
	AssetClasses         int             `json:"asset_classes"`
	DiversificationScore float64         `json:"diversification_score"`
}

// PortfolioResult 持仓分析结果
type PortfolioResult struct {
	AnswerText string           `json:"answer"`
	Rows       []AllocationRow  `json:"rows"`
	Summary    PortfolioSummary `json:"summary"`
}

func (r *PortfolioResult) Answer() string    { return r.AnswerText }
func (r *PortfolioResult) Sources() []string { return nil }

// GoalRequest 目标测算入参
type GoalRequest struct {
	TargetAmount        float64 `json:"target_amount"`
	Months              int     `json:"months"`
	MonthlyContribution float64 `json:"monthly_contribution"`
	AnnualReturnPct     float64 `json:"annual_return_pct"`
}

// GoalsResult 目标测算结果
type GoalsResult struct {
	AnswerText string        `json:"answer"`
	Request    GoalRequest   `json:"request"`
	Schedule   []goals.Point `json:"schedule"`
	ReachMonth int           `json:"reach_month"`
	Reached    bool          `json:"reached"`
}

func (r *GoalsResult) Answer() string    { return r.AnswerText }
func (r *GoalsResult) Sources() []string { return nil }

// =============================================================================
// 🗂️ 请求状态
// =============================================================================

// State 单次请求的独立状态。协作方(UI)提供 UserQuery/History,
// 编排完成后消费 Answer/Sources/AgentName 及各意图专属字段。
type State struct {
	RequestID string
	UserQuery string
	History   []llm.Message

	// 可选的调用方输入
	Holdings    []Holding
	GoalRequest *GoalRequest

	// 编排过程中写入
	Intent    string
	AgentName string
	Answer    string
	Sources   []string

	QA        *QAResult
	Market    *MarketResult
	Portfolio *PortfolioResult
	Goals     *GoalsResult
}

// NewState 创建请求状态并分配请求 ID。
func NewState(query string) *State {
	return &State{
		RequestID: uuid.NewString(),
		UserQuery: query,
	}
}

// Apply 把结果合并回状态:answer/sources 无条件覆盖,
// 意图专属字段按具体类型落位。
func (s *State) Apply(result Result) {
	if result == nil {
		return
	}

	s.Answer = result.Answer()
	s.Sources = result.Sources()

	switch r := result.(type) {
	case *QAResult:
		s.QA = r
	case *MarketResult:
		s.Market = r
	case *PortfolioResult:
		s.Portfolio = r
	case *GoalsResult:
		s.Goals = r
	}
}

// =============================================================================
// 🗃️ Agent 注册表
// =============================================================================

// DefaultAgentName 未知意图的兜底 agent
const DefaultAgentName = "finance_qa"

// Registry 按名字索引 agent。查不到时回落 finance_qa。
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
}

// NewRegistry 创建注册表
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]Agent)}
}

// Register 注册 agent,同名覆盖。
func (r *Registry) Register(a Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a.Name()] = a
}

// Get 按名字取 agent;未注册的名字回落到 finance_qa,
// 连 finance_qa 都没有时返回 nil。
func (r *Registry) Get(name string) Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if a, ok := r.agents[name]; ok {
		return a
	}
	return r.agents[DefaultAgentName]
}

// Names 返回已注册的 agent 名
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	return names
}

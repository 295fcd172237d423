package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteIntent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  Intent
	}{
		{"price chart with ticker", "show me the price chart for AAPL", IntentMarket},
		{"quote with ticker", "get me a quote for MSFT", IntentMarket},
		{"lowercase company name not a ticker", "apple stock price", IntentFinanceQA},
		{"market word without ticker", "how is the stock market", IntentFinanceQA},
		{"ticker without market word goes elsewhere", "AAPL allocation", IntentPortfolio},

		{"my portfolio", "how is my portfolio diversified", IntentPortfolio},
		{"rebalance", "should I rebalance", IntentPortfolio},
		{"largest holding", "what is my largest holding", IntentPortfolio},
		{"positions", "list my positions", IntentPortfolio},
		{"diversification with personal context", "diversification of my holdings", IntentPortfolio},
		{"diversification alone is education", "explain diversification", IntentFinanceQA},

		{"retirement", "I want to retire with $1M", IntentGoals},
		{"retirement keyword", "retirement planning basics", IntentGoals},
		{"saving", "how much should I be saving", IntentGoals},
		{"contribution", "increase my monthly contribution", IntentGoals},

		{"default", "what is an ETF", IntentFinanceQA},
		{"empty", "", IntentFinanceQA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RouteIntent(tt.query), "query: %q", tt.query)
		})
	}
}

func TestRouteIntentStopWordsNotTickers(t *testing.T) {
	t.Parallel()

	// 全大写常见词不触发行情意图
	assert.Equal(t, IntentFinanceQA, RouteIntent("WHAT is a stock price"))
	assert.Equal(t, IntentFinanceQA, RouteIntent("HOW does the market work"))

	// 停用词旁的真实代码仍然触发
	assert.Equal(t, IntentMarket, RouteIntent("WHAT is the price of NVDA"))
}

func TestRouteIntentMarketBeatsPortfolio(t *testing.T) {
	t.Parallel()

	// 行情词 + 代码优先于持仓词,规则顺序在前
	assert.Equal(t, IntentMarket, RouteIntent("price of AAPL in my portfolio"))
}

func TestRouteIntentIsPure(t *testing.T) {
	t.Parallel()

	query := "show me the price chart for AAPL"
	first := RouteIntent(query)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, RouteIntent(query))
	}
}

// Package workflow wires the intent router and the two-node orchestration
// graph that drives one request end to end.
package workflow

import (
	"regexp"
	"strings"

	"github.com/finassist/finassist/marketdata"
)

// Intent 意图标签
type Intent string

const (
	IntentMarket    Intent = "market"
	IntentPortfolio Intent = "portfolio"
	IntentGoals     Intent = "goals"
	IntentFinanceQA Intent = "finance_qa"
)

// 2-5 位全大写 token 才算候选代码;只看原文,不做大小写归一,
// 小写提到的公司名不触发行情意图。
var routeTickerPattern = regexp.MustCompile(`\b[A-Z]{2,5}\b`)

var marketTriggers = []string{"price", "quote", "trend", "chart", "market", "stock"}

var portfolioStrong = []string{
	"my portfolio", "my holdings", "my allocation",
	"rebalance", "largest holding", "asset class",
	"portfolio", "holdings", "allocation", "positions",
}

var portfolioHintWords = []string{"holdings", "allocation", "rebalance", "portfolio"}

var diversifyContext = []string{"my ", "portfolio", "holdings", "allocation"}

// "retire" 同时覆盖 "retirement" 与 "retire with ..." 的说法
var goalTriggers = []string{"goal", "target", "retire", "projection", "plan"}

var savingTriggers = []string{"save", "saving", "contribution", "monthly contribution"}

// hasTickerLikeToken 原文中是否存在非停用词的 2-5 位全大写 token。
// 停用词表与 marketdata.ExtractSymbol 共用。
func hasTickerLikeToken(text string) bool {
	for _, token := range routeTickerPattern.FindAllString(text, -1) {
		if !marketdata.IsSymbolStopWord(token) {
			return true
		}
	}
	return false
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// RouteIntent 把一条查询映射到四个意图之一。纯函数,规则有序,
// 首条命中即返回:
//
//  1. market    — 行情词汇 且 存在代码样 token
//  2. portfolio — 持仓词组;或 代码样 token + 持仓提示词;
//     或 "diversif" + 个人/持仓语境
//  3. goals     — 目标或储蓄触发词
//  4. finance_qa — 兜底
func RouteIntent(query string) Intent {
	q := strings.TrimSpace(query)
	qLower := strings.ToLower(q)

	// 1) market: 需要行情词汇和真实代码同时出现
	if containsAny(qLower, marketTriggers) && hasTickerLikeToken(q) {
		return IntentMarket
	}

	// 2) portfolio: 明确谈及用户持仓时
	if containsAny(qLower, portfolioStrong) {
		return IntentPortfolio
	}
	if hasTickerLikeToken(q) && containsAny(qLower, portfolioHintWords) {
		return IntentPortfolio
	}
	// "diversif" 有歧义,只有叠加个人语境才算持仓问题
	if strings.Contains(qLower, "diversif") && containsAny(qLower, diversifyContext) {
		return IntentPortfolio
	}

	// 3) goals
	if containsAny(qLower, goalTriggers) || containsAny(qLower, savingTriggers) {
		return IntentGoals
	}

	// 4) 兜底 → 知识库问答
	return IntentFinanceQA
}

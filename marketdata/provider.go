// Package marketdata fetches daily close series for equity tickers.
//
// 提供 Alpha Vantage 客户端、合成序列回退与 TTL 缓存装饰器。
// 数据源不可用(未配置密钥或返回空序列)时约定返回 (nil, nil),
// 由调用方决定是否回退到合成序列。
package marketdata

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// Point 单日收盘价
type Point struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Provider 日线数据源。序列按日期升序;数据缺失返回 (nil, nil)。
type Provider interface {
	DailySeries(ctx context.Context, symbol string) ([]Point, error)
	Name() string
}

// DefaultSymbol 查询中未出现股票代码时的默认值
const DefaultSymbol = "SPY"

// DefaultPeriod 查询中未出现周期时的默认值
const DefaultPeriod = "1mo"

// periodPoints 周期对应的数据点数
var periodPoints = map[string]int{
	"5d":  6,
	"1mo": 30,
	"3mo": 90,
	"6mo": 180,
	"1y":  365,
}

var (
	tickerPattern = regexp.MustCompile(`\b[A-Z]{1,5}\b`)
	periodPattern = regexp.MustCompile(`\b(5d|1mo|3mo|6mo|1y)\b`)
)

// symbolStopWords 常见英文大写词,不当作股票代码。路由和代码解析
// 共用同一份列表,保证两边对同一个 token 的判断一致。
var symbolStopWords = map[string]struct{}{
	"THE": {}, "AND": {}, "FOR": {}, "WHY": {}, "WHAT": {}, "WHEN": {},
	"WHERE": {}, "HOW": {}, "USE": {}, "WITH": {}, "THIS": {}, "THAT": {},
	"FROM": {}, "IN": {}, "ON": {}, "TO": {}, "OF": {}, "IS": {}, "ARE": {},
	"A": {}, "I": {},
}

// IsSymbolStopWord 报告一个全大写 token 是否为普通英文词而非代码。
func IsSymbolStopWord(token string) bool {
	_, ok := symbolStopWords[token]
	return ok
}

// ExtractSymbol 返回查询中第一个非停用词的 1-5 位全大写 token,
// 没有则返回 DefaultSymbol。只认原文中的全大写写法,
// 小写的公司名("apple")不会被当作代码。
func ExtractSymbol(query string) string {
	for _, m := range tickerPattern.FindAllString(query, -1) {
		if IsSymbolStopWord(m) {
			continue
		}
		return m
	}
	return DefaultSymbol
}

// ExtractPeriod 返回查询中第一个合法周期 token,没有则返回 DefaultPeriod。
func ExtractPeriod(query string) string {
	if m := periodPattern.FindString(strings.ToLower(query)); m != "" {
		return m
	}
	return DefaultPeriod
}

// PointsForPeriod 返回周期应展示的数据点数,未知周期按 1mo 处理。
func PointsForPeriod(period string) int {
	if n, ok := periodPoints[period]; ok {
		return n
	}
	return periodPoints[DefaultPeriod]
}

// Periods 返回支持的周期集合,固定顺序。
func Periods() []string {
	return []string{"5d", "1mo", "3mo", "6mo", "1y"}
}

// Tail 返回序列最后 n 个点;n 不小于序列长度时原样返回。
func Tail(points []Point, n int) []Point {
	if n <= 0 || n >= len(points) {
		return points
	}
	return points[len(points)-n:]
}

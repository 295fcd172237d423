package rag

import (
	"fmt"
	"strings"
)

// BuildContext 将检索结果格式化为带编号出处的上下文块，
// 供生成模型引用。纯函数。
func BuildContext(hits []Hit) string {
	var lines []string
	for _, h := range hits {
		lines = append(lines, fmt.Sprintf("[%d] Source: %s", h.Rank, h.Source))
		lines = append(lines, h.Text)
		lines = append(lines, "")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// HitsToSources 生成去重后的引用标签列表，如 "[1] etf_basics.txt"。
// 按 "[rank] source" 整体去重并保持首见顺序：同一文件出现在两个
// rank 会产生两条标签，rank 反映相关性排序。
func HitsToSources(hits []Hit) []string {
	var out []string
	seen := make(map[string]bool)
	for _, h := range hits {
		label := fmt.Sprintf("[%d] %s", h.Rank, h.Source)
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	return out
}

// TruncateHitsByTokens 在 token 预算内保留前缀 Hit；第一条始终保留，
// 避免空上下文。预算 <= 0 或 counter 为 nil 时不截断。
func TruncateHitsByTokens(hits []Hit, counter TokenCounter, budget int) []Hit {
	if counter == nil || budget <= 0 || len(hits) == 0 {
		return hits
	}

	total := 0
	for i, h := range hits {
		total += counter.CountTokens(h.Text)
		if total > budget && i > 0 {
			return hits[:i]
		}
	}
	return hits
}

package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubCounter counts whitespace-separated words as tokens.
type stubCounter struct{}

func (stubCounter) CountTokens(text string) int { return len(strings.Fields(text)) }

func TestBuildContextFormat(t *testing.T) {
	hits := []Hit{
		{Rank: 1, Source: "etf.md", Text: "An ETF is a basket of securities."},
		{Rank: 2, Source: "bonds.md", Text: "Bonds pay fixed coupons."},
	}

	ctx := BuildContext(hits)
	assert.Contains(t, ctx, "[1] Source: etf.md\nAn ETF is a basket of securities.")
	assert.Contains(t, ctx, "[2] Source: bonds.md\nBonds pay fixed coupons.")
	assert.False(t, strings.HasSuffix(ctx, "\n"))
}

func TestBuildContextEmpty(t *testing.T) {
	assert.Equal(t, "", BuildContext(nil))
}

func TestHitsToSourcesLabels(t *testing.T) {
	hits := []Hit{
		{Rank: 1, Source: "etf.md"},
		{Rank: 2, Source: "bonds.md"},
		{Rank: 3, Source: "stocks.md"},
	}

	assert.Equal(t, []string{"[1] etf.md", "[2] bonds.md", "[3] stocks.md"}, HitsToSources(hits))
}

func TestHitsToSourcesSameSourceDistinctRanks(t *testing.T) {
	// 同一来源出现在两个名次时,标签不同,两条都保留
	hits := []Hit{
		{Rank: 1, Source: "etf.md"},
		{Rank: 2, Source: "etf.md"},
	}

	assert.Equal(t, []string{"[1] etf.md", "[2] etf.md"}, HitsToSources(hits))
}

func TestTruncateHitsByTokens(t *testing.T) {
	hits := []Hit{
		{Rank: 1, Text: "one two three four"},  // 4 tokens
		{Rank: 2, Text: "five six seven"},      // 3 tokens
		{Rank: 3, Text: "eight nine ten more"}, // 4 tokens
	}

	kept := TruncateHitsByTokens(hits, stubCounter{}, 7)
	assert.Len(t, kept, 2)

	kept = TruncateHitsByTokens(hits, stubCounter{}, 100)
	assert.Len(t, kept, 3)
}

func TestTruncateHitsByTokensKeepsFirst(t *testing.T) {
	hits := []Hit{
		{Rank: 1, Text: "a very long first hit that alone exceeds the budget"},
		{Rank: 2, Text: "short"},
	}

	kept := TruncateHitsByTokens(hits, stubCounter{}, 2)
	assert.Len(t, kept, 1)
	assert.Equal(t, 1, kept[0].Rank)
}

func TestTruncateHitsByTokensNilCounter(t *testing.T) {
	hits := []Hit{{Rank: 1, Text: "anything"}}
	assert.Equal(t, hits, TruncateHitsByTokens(hits, nil, 1))
}

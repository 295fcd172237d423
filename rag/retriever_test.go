package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func buildTestRetriever(t *testing.T, topK int) (*Retriever, *fakeEmbedder) {
	t.Helper()
	embedder := newFakeEmbedder(32)
	store := newTestStore(t, t.TempDir(), embedder)
	require.NoError(t, store.BuildIndex(context.Background(), testDocs()))
	return NewRetriever(store, embedder, topK, zap.NewNop()), embedder
}

func TestRetrieverSelfRetrieval(t *testing.T) {
	retriever, _ := buildTestRetriever(t, 3)

	hits, err := retriever.Retrieve(context.Background(),
		"Stocks represent fractional ownership in a company.", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].Rank)
	assert.Equal(t, "stocks.md", hits[0].Source)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestRetrieverRanksAreSequential(t *testing.T) {
	retriever, _ := buildTestRetriever(t, 3)

	hits, err := retriever.Retrieve(context.Background(), "exchange traded basket of securities", 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	for i, h := range hits {
		assert.Equal(t, i+1, h.Rank)
		if i > 0 {
			assert.LessOrEqual(t, h.Score, hits[i-1].Score)
		}
	}
}

func TestRetrieverDefaultTopK(t *testing.T) {
	retriever, _ := buildTestRetriever(t, 0)

	// topK <= 0 回落到 DefaultTopK
	hits, err := retriever.Retrieve(context.Background(), "ownership", 0)
	require.NoError(t, err)
	assert.Len(t, hits, DefaultTopK)
}

func TestRetrieverTopKExceedsCorpus(t *testing.T) {
	retriever, _ := buildTestRetriever(t, 3)

	hits, err := retriever.Retrieve(context.Background(), "coupons", 50)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestRetrieverEmbedFailure(t *testing.T) {
	retriever, embedder := buildTestRetriever(t, 3)
	embedder.fail = true

	_, err := retriever.Retrieve(context.Background(), "anything", 3)
	assert.Error(t, err)
}

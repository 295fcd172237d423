package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DefaultTopK 默认返回的检索条数
const DefaultTopK = 3

// Retriever 把查询嵌入与最近邻搜索组合为一次检索。
// 嵌入服务失败原样上抛（UPSTREAM_ERROR），这里不做重试。
type Retriever struct {
	store    *Store
	embedder EmbeddingProvider
	topK     int
	logger   *zap.Logger
}

// NewRetriever 创建检索器。topK <= 0 时使用 DefaultTopK。
func NewRetriever(store *Store, embedder EmbeddingProvider, topK int, logger *zap.Logger) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{store: store, embedder: embedder, topK: topK, logger: logger}
}

// Retrieve 返回与查询最相近的至多 topK 条 Hit，Rank 为返回序中的
// 1-based 位置，相同分数按索引插入顺序排序。
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]Hit, error) {
	if topK <= 0 {
		topK = r.topK
	}

	vec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scores, chunks, err := r.store.Search(ctx, vec, topK)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(chunks))
	for i, c := range chunks {
		hits = append(hits, Hit{
			Rank:   i + 1,
			Source: c.Source,
			Text:   c.Text,
			Score:  scores[i],
		})
	}

	r.logger.Debug("retrieval completed",
		zap.Int("hits", len(hits)),
		zap.Int("top_k", topK))

	return hits, nil
}

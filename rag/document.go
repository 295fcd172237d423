package rag

import "context"

// Document 一篇待索引的原始文档
type Document struct {
	Source string `json:"source"` // 文件名或 URL
	Title  string `json:"title,omitempty"`
	Text   string `json:"text"`
}

// Chunk 不可变的索引文本块。构建索引时创建，之后不再修改；
// 只有重建索引才会销毁。
type Chunk struct {
	ID     string         `json:"id"` // "<source>::chunk<N>"
	Text   string         `json:"text"`
	Source string         `json:"source"`
	Title  string         `json:"title,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// Hit 单条检索结果，生命周期为一次请求。
type Hit struct {
	Rank   int     `json:"rank"` // 1-based
	Source string  `json:"source"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

// EmbeddingProvider 检索所需的最小嵌入接口。
type EmbeddingProvider interface {
	EmbedQuery(ctx context.Context, query string) ([]float64, error)
	EmbedDocuments(ctx context.Context, documents []string) ([][]float64, error)
	Name() string
}

// TokenCounter 上下文预算所需的最小计数接口。
type TokenCounter interface {
	CountTokens(text string) int
}

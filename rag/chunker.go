package rag

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/finassist/finassist/types"
)

// ChunkerConfig 分块配置
type ChunkerConfig struct {
	ChunkSize int `json:"chunk_size"` // 窗口大小（字符）
	Overlap   int `json:"overlap"`    // 相邻窗口重叠（字符）
}

// DefaultChunkerConfig 返回默认分块配置
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		ChunkSize: 900,
		Overlap:   150,
	}
}

// Validate rejects parameter combinations that would stall the window
// advance: overlap >= chunk_size never makes progress.
func (c ChunkerConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return types.NewError(types.ErrConfigChunking,
			fmt.Sprintf("chunk size must be positive, got %d", c.ChunkSize))
	}
	if c.Overlap < 0 {
		return types.NewError(types.ErrConfigChunking,
			fmt.Sprintf("overlap must be non-negative, got %d", c.Overlap))
	}
	if c.Overlap >= c.ChunkSize {
		return types.NewError(types.ErrConfigChunking,
			fmt.Sprintf("overlap (%d) must be smaller than chunk size (%d)", c.Overlap, c.ChunkSize))
	}
	return nil
}

// Chunker 固定大小、带重叠的字符窗口分块器
type Chunker struct {
	config ChunkerConfig
	logger *zap.Logger
}

// NewChunker 创建分块器；配置非法时返回 CONFIG_CHUNKING 错误。
func NewChunker(config ChunkerConfig, logger *zap.Logger) (*Chunker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chunker{config: config, logger: logger}, nil
}

// Chunk 将一篇文档切成重叠窗口。空白文档产生零个块。
// 块 ID 为 "<source>::chunk<N>"，N 为文档内单调递增的窗口序号；
// Meta 记录窗口的起止字符偏移。
func (c *Chunker) Chunk(text, source, title string) []Chunk {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	runes := []rune(trimmed)
	n := len(runes)

	chunks := []Chunk{}
	start := 0
	i := 0

	for {
		end := start + c.config.ChunkSize
		if end > n {
			end = n
		}

		window := strings.TrimSpace(string(runes[start:end]))
		if window != "" {
			chunks = append(chunks, Chunk{
				ID:     fmt.Sprintf("%s::chunk%d", source, i),
				Text:   window,
				Source: source,
				Title:  title,
				Meta:   map[string]any{"start": start, "end": end},
			})
		}
		i++

		if end >= n {
			break
		}
		start = end - c.config.Overlap
	}

	c.logger.Debug("document chunked",
		zap.String("source", source),
		zap.Int("chars", n),
		zap.Int("chunks", len(chunks)))

	return chunks
}

// ChunkAll 按输入顺序分块多篇文档。
func (c *Chunker) ChunkAll(docs []Document) []Chunk {
	var all []Chunk
	for _, doc := range docs {
		all = append(all, c.Chunk(doc.Text, doc.Source, doc.Title)...)
	}
	return all
}

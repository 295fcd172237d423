package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/finassist/finassist/types"
)

const (
	vectorsFile = "vectors.bin"
	chunksFile  = "chunks.json"
)

// StoreConfig 存储配置
type StoreConfig struct {
	Dir       string        // 工件目录
	Chunker   ChunkerConfig // 分块参数
	BatchSize int           // 嵌入批大小
}

// Store 分块/嵌入存储。构建阶段把文档切块、嵌入并写出两个
// 必须成对加载的工件；加载后索引只读，可跨请求共享。
type Store struct {
	config   StoreConfig
	embedder EmbeddingProvider
	index    *FlatIndex
	chunks   []Chunk
	logger   *zap.Logger
}

// NewStore 创建存储。分块参数非法时返回 CONFIG_CHUNKING 错误。
func NewStore(config StoreConfig, embedder EmbeddingProvider, logger *zap.Logger) (*Store, error) {
	if err := config.Chunker.Validate(); err != nil {
		return nil, err
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{config: config, embedder: embedder, logger: logger}, nil
}

// Chunks 返回与向量顺序一致的块序列。
func (s *Store) Chunks() []Chunk { return s.chunks }

// Count 返回已索引的块数。
func (s *Store) Count() int { return len(s.chunks) }

// BuildIndex 分块、分批嵌入并持久化。任一批次嵌入失败则整体中止，
// 不保留部分结果。
func (s *Store) BuildIndex(ctx context.Context, docs []Document) error {
	chunker, err := NewChunker(s.config.Chunker, s.logger)
	if err != nil {
		return err
	}
	chunks := chunker.ChunkAll(docs)
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks produced from %d documents", len(docs))
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	var vectors [][]float64
	for start := 0; start < len(texts); start += s.config.BatchSize {
		end := start + s.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := s.embedder.EmbedDocuments(ctx, texts[start:end])
		if err != nil {
			return fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		vectors = append(vectors, batch...)
	}

	index := NewFlatIndex(0, s.logger)
	if err := index.Add(vectors); err != nil {
		return err
	}

	s.index = index
	s.chunks = chunks

	if err := s.save(); err != nil {
		return err
	}

	s.logger.Info("index built",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)),
		zap.Int("dim", index.Dim()))
	return nil
}

// save 写出两个工件。
func (s *Store) save() error {
	if err := os.MkdirAll(s.config.Dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	if err := s.index.Save(filepath.Join(s.config.Dir, vectorsFile)); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal chunk metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.config.Dir, chunksFile), data, 0o644); err != nil {
		return fmt.Errorf("write chunk metadata: %w", err)
	}
	return nil
}

// Load 读取两个工件。任一缺失返回 INDEX_NOT_FOUND；
// 向量数与块数不一致返回 INDEX_CORRUPT。
func (s *Store) Load(ctx context.Context) error {
	vectorsPath := filepath.Join(s.config.Dir, vectorsFile)
	chunksPath := filepath.Join(s.config.Dir, chunksFile)

	index, err := LoadFlatIndex(vectorsPath, s.logger)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(chunksPath)
	if err != nil {
		if os.IsNotExist(err) {
			return types.NewError(types.ErrIndexNotFound,
				fmt.Sprintf("index artifact %s not found", chunksPath))
		}
		return fmt.Errorf("read chunk metadata: %w", err)
	}

	var chunks []Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return types.NewError(types.ErrIndexCorrupt, "chunk metadata is not valid JSON").WithCause(err)
	}

	if index.Size() != len(chunks) {
		return types.NewError(types.ErrIndexCorrupt,
			fmt.Sprintf("artifact mismatch: %d vectors, %d chunks", index.Size(), len(chunks)))
	}

	s.index = index
	s.chunks = chunks
	return nil
}

// Search 给定归一化查询向量，返回至多 topK 个 (score, Chunk) 对，
// 按相似度降序。topK 超过语料规模时返回全部。
func (s *Store) Search(ctx context.Context, query []float64, topK int) ([]float64, []Chunk, error) {
	if s.index == nil {
		return nil, nil, types.NewError(types.ErrIndexNotFound, "index not loaded")
	}

	results, err := s.index.Search(query, topK)
	if err != nil {
		return nil, nil, err
	}

	scores := make([]float64, 0, len(results))
	chunks := make([]Chunk, 0, len(results))
	for _, r := range results {
		// 防御哨兵/越界条目，与底层索引返回 -1 的约定保持一致
		if r.Index < 0 || r.Index >= len(s.chunks) {
			continue
		}
		scores = append(scores, r.Score)
		chunks = append(chunks, s.chunks[r.Index])
	}
	return scores, chunks, nil
}

package rag

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/finassist/finassist/types"
)

// vectors.bin 文件头: magic + version + dim + count，其后为 count*dim 个
// little-endian float32。
var indexMagic = [4]byte{'F', 'V', 'I', 'X'}

const indexVersion uint32 = 1

// SearchResult 最近邻搜索结果
type SearchResult struct {
	Index int     // 向量在索引中的位置，与 chunk 顺序一一对应
	Score float64 // 归一化内积（余弦相似度）
}

// FlatIndex 内积扁平索引。所有向量在加入前做 L2 归一化，
// 因此内积即余弦相似度。构建完成后只读，可跨请求安全共享。
type FlatIndex struct {
	dim     int
	vectors [][]float32
	logger  *zap.Logger
}

// NewFlatIndex 创建空索引。dim 为 0 时由第一批向量确定维度。
func NewFlatIndex(dim int, logger *zap.Logger) *FlatIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FlatIndex{dim: dim, logger: logger}
}

func (idx *FlatIndex) Size() int { return len(idx.vectors) }
func (idx *FlatIndex) Dim() int  { return idx.dim }

// Add 归一化并追加向量。维度不一致返回 INDEX_CORRUPT。
func (idx *FlatIndex) Add(vectors [][]float64) error {
	for _, v := range vectors {
		if idx.dim == 0 {
			idx.dim = len(v)
		}
		if len(v) != idx.dim {
			return types.NewError(types.ErrIndexCorrupt,
				fmt.Sprintf("vector dimension %d does not match index dimension %d", len(v), idx.dim))
		}
		idx.vectors = append(idx.vectors, normalize(v))
	}
	return nil
}

// Search 返回与查询向量内积最高的至多 k 个结果，按相似度降序。
// k 超过向量总数时返回全部，不报错。相同分数按插入顺序稳定排序。
func (idx *FlatIndex) Search(query []float64, k int) ([]SearchResult, error) {
	if len(query) != idx.dim {
		return nil, types.NewError(types.ErrIndexCorrupt,
			fmt.Sprintf("query dimension %d does not match index dimension %d", len(query), idx.dim))
	}
	if k <= 0 || len(idx.vectors) == 0 {
		return []SearchResult{}, nil
	}

	q := normalize(query)

	results := make([]SearchResult, 0, len(idx.vectors))
	for i, v := range idx.vectors {
		var dot float64
		for j := range v {
			dot += float64(q[j]) * float64(v[j])
		}
		results = append(results, SearchResult{Index: i, Score: dot})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Save 写出二进制向量工件。
func (idx *FlatIndex) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(indexMagic[:]); err != nil {
		return fmt.Errorf("write index header: %w", err)
	}
	header := []uint32{indexVersion, uint32(idx.dim), uint32(len(idx.vectors))}
	for _, h := range header {
		if err := binary.Write(f, binary.LittleEndian, h); err != nil {
			return fmt.Errorf("write index header: %w", err)
		}
	}
	for _, v := range idx.vectors {
		if err := binary.Write(f, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write index vectors: %w", err)
		}
	}

	idx.logger.Info("flat index saved",
		zap.String("path", path),
		zap.Int("vectors", len(idx.vectors)),
		zap.Int("dim", idx.dim))
	return nil
}

// LoadFlatIndex 读取二进制向量工件。文件缺失返回 INDEX_NOT_FOUND，
// 文件头或长度不一致返回 INDEX_CORRUPT。
func LoadFlatIndex(path string, logger *zap.Logger) (*FlatIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewError(types.ErrIndexNotFound,
				fmt.Sprintf("index artifact %s not found", path))
		}
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	var magic [4]byte
	if _, err := f.Read(magic[:]); err != nil || magic != indexMagic {
		return nil, types.NewError(types.ErrIndexCorrupt,
			fmt.Sprintf("index artifact %s has invalid header", path))
	}

	var version, dim, count uint32
	for _, dst := range []*uint32{&version, &dim, &count} {
		if err := binary.Read(f, binary.LittleEndian, dst); err != nil {
			return nil, types.NewError(types.ErrIndexCorrupt,
				fmt.Sprintf("index artifact %s truncated", path)).WithCause(err)
		}
	}
	if version != indexVersion {
		return nil, types.NewError(types.ErrIndexCorrupt,
			fmt.Sprintf("index artifact %s has unsupported version %d", path, version))
	}

	idx := &FlatIndex{dim: int(dim), logger: logger}
	idx.vectors = make([][]float32, 0, count)
	for i := uint32(0); i < count; i++ {
		v := make([]float32, dim)
		if err := binary.Read(f, binary.LittleEndian, v); err != nil {
			return nil, types.NewError(types.ErrIndexCorrupt,
				fmt.Sprintf("index artifact %s truncated at vector %d", path, i)).WithCause(err)
		}
		idx.vectors = append(idx.vectors, v)
	}

	logger.Info("flat index loaded",
		zap.String("path", path),
		zap.Int("vectors", len(idx.vectors)),
		zap.Int("dim", idx.dim))
	return idx, nil
}

// normalize L2-归一化并转为 float32。零向量原样返回。
func normalize(v []float64) []float32 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	norm := math.Sqrt(sum)

	out := make([]float32, len(v))
	if norm == 0 {
		for i, x := range v {
			out[i] = float32(x)
		}
		return out
	}
	for i, x := range v {
		out[i] = float32(x / norm)
	}
	return out
}

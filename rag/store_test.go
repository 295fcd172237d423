package rag

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finassist/finassist/types"
)

func testDocs() []Document {
	return []Document{
		{Source: "etf.md", Title: "etf", Text: "An ETF is a basket of securities traded on an exchange."},
		{Source: "bonds.md", Title: "bonds", Text: "Bonds pay fixed coupons and return principal at maturity."},
		{Source: "stocks.md", Title: "stocks", Text: "Stocks represent fractional ownership in a company."},
	}
}

func newTestStore(t *testing.T, dir string, embedder EmbeddingProvider) *Store {
	t.Helper()
	store, err := NewStore(StoreConfig{
		Dir:     dir,
		Chunker: ChunkerConfig{ChunkSize: 900, Overlap: 150},
	}, embedder, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestStoreBuildLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	embedder := newFakeEmbedder(32)

	builder := newTestStore(t, dir, embedder)
	require.NoError(t, builder.BuildIndex(context.Background(), testDocs()))
	assert.Equal(t, 3, builder.Count())

	assert.FileExists(t, filepath.Join(dir, "vectors.bin"))
	assert.FileExists(t, filepath.Join(dir, "chunks.json"))

	loaded := newTestStore(t, dir, embedder)
	require.NoError(t, loaded.Load(context.Background()))
	assert.Equal(t, builder.Count(), loaded.Count())
	assert.Equal(t, builder.Chunks(), loaded.Chunks())

	vec, err := embedder.EmbedQuery(context.Background(), "Bonds pay fixed coupons and return principal at maturity.")
	require.NoError(t, err)
	scores, chunks, err := loaded.Search(context.Background(), vec, 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "bonds.md", chunks[0].Source)
	assert.InDelta(t, 1.0, scores[0], 1e-6)
}

func TestStoreLoadMissingArtifacts(t *testing.T) {
	store := newTestStore(t, t.TempDir(), newFakeEmbedder(8))

	err := store.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.ErrIndexNotFound, types.CodeOf(err))
}

func TestStoreLoadMissingChunksFile(t *testing.T) {
	dir := t.TempDir()
	embedder := newFakeEmbedder(8)

	builder := newTestStore(t, dir, embedder)
	require.NoError(t, builder.BuildIndex(context.Background(), testDocs()))
	require.NoError(t, os.Remove(filepath.Join(dir, "chunks.json")))

	err := newTestStore(t, dir, embedder).Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.ErrIndexNotFound, types.CodeOf(err))
}

func TestStoreLoadCountMismatch(t *testing.T) {
	dir := t.TempDir()
	embedder := newFakeEmbedder(8)

	builder := newTestStore(t, dir, embedder)
	require.NoError(t, builder.BuildIndex(context.Background(), testDocs()))

	// 丢掉一个块,向量数与块数不再一致
	chunks := builder.Chunks()[:2]
	data, err := json.Marshal(chunks)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chunks.json"), data, 0o644))

	err = newTestStore(t, dir, embedder).Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.ErrIndexCorrupt, types.CodeOf(err))
}

func TestStoreLoadCorruptChunksJSON(t *testing.T) {
	dir := t.TempDir()
	embedder := newFakeEmbedder(8)

	builder := newTestStore(t, dir, embedder)
	require.NoError(t, builder.BuildIndex(context.Background(), testDocs()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chunks.json"), []byte("{not json"), 0o644))

	err := newTestStore(t, dir, embedder).Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.ErrIndexCorrupt, types.CodeOf(err))
}

func TestStoreBuildIndexEmbedFailureAborts(t *testing.T) {
	dir := t.TempDir()
	embedder := &fakeEmbedder{dim: 8, fail: true}

	store := newTestStore(t, dir, embedder)
	err := store.BuildIndex(context.Background(), testDocs())
	require.Error(t, err)

	// 失败时不得留下部分工件
	assert.NoFileExists(t, filepath.Join(dir, "vectors.bin"))
	assert.NoFileExists(t, filepath.Join(dir, "chunks.json"))
}

func TestStoreBuildIndexNoDocuments(t *testing.T) {
	store := newTestStore(t, t.TempDir(), newFakeEmbedder(8))
	assert.Error(t, store.BuildIndex(context.Background(), nil))
}

func TestStoreSearchBeforeLoad(t *testing.T) {
	store := newTestStore(t, t.TempDir(), newFakeEmbedder(8))
	_, _, err := store.Search(context.Background(), []float64{1, 0, 0, 0, 0, 0, 0, 0}, 3)
	require.Error(t, err)
	assert.Equal(t, types.ErrIndexNotFound, types.CodeOf(err))
}

func TestNewStoreRejectsBadChunking(t *testing.T) {
	_, err := NewStore(StoreConfig{
		Dir:     t.TempDir(),
		Chunker: ChunkerConfig{ChunkSize: 100, Overlap: 100},
	}, newFakeEmbedder(8), zap.NewNop())
	require.Error(t, err)
	assert.Equal(t, types.ErrConfigChunking, types.CodeOf(err))
}

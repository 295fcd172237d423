package rag

import (
	"context"
	"errors"
	"hash/fnv"
)

// fakeEmbedder produces deterministic vectors by hashing words into a
// fixed number of buckets, so identical texts always embed identically.
type fakeEmbedder struct {
	dim  int
	fail bool
}

func newFakeEmbedder(dim int) *fakeEmbedder {
	return &fakeEmbedder{dim: dim}
}

func (f *fakeEmbedder) embed(text string) []float64 {
	v := make([]float64, f.dim)
	h := fnv.New32a()
	word := make([]byte, 0, 16)
	flush := func() {
		if len(word) == 0 {
			return
		}
		h.Reset()
		h.Write(word)
		v[int(h.Sum32())%f.dim]++
		word = word[:0]
	}
	for i := 0; i < len(text); i++ {
		if text[i] == ' ' || text[i] == '\n' || text[i] == '\t' {
			flush()
			continue
		}
		word = append(word, text[i])
	}
	flush()
	return v
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, query string) ([]float64, error) {
	if f.fail {
		return nil, errors.New("embedding service unavailable")
	}
	return f.embed(query), nil
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, documents []string) ([][]float64, error) {
	if f.fail {
		return nil, errors.New("embedding service unavailable")
	}
	out := make([][]float64, len(documents))
	for i, d := range documents {
		out[i] = f.embed(d)
	}
	return out, nil
}

func (f *fakeEmbedder) Name() string { return "fake-embedder" }

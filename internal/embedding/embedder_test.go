package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/hyperjump/studycast/internal/cache"
	"github.com/hyperjump/studycast/internal/vector"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()
	a, _ := e.Embed(ctx, "photosynthesis converts light")
	b, _ := e.Embed(ctx, "photosynthesis converts light")
	if len(a) != 64 {
		t.Fatalf("dimensions: got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same text should give same embedding")
		}
	}
	if norm := vector.L2Norm(a); norm < 0.999 || norm > 1.001 {
		t.Errorf("embedding should be unit length, got %f", norm)
	}
}

func TestHashEmbedder_SharedWordsAreSimilar(t *testing.T) {
	e := NewHashEmbedder(256)
	ctx := context.Background()
	q, _ := e.Embed(ctx, "mitosis")
	near, _ := e.Embed(ctx, "Mitosis: cell division")
	far, _ := e.Embed(ctx, "Supply and demand curves")
	if vector.CosineSimilarity(q, near) <= vector.CosineSimilarity(q, far) {
		t.Error("text sharing a word should be more similar")
	}
}

type countingEmbedder struct {
	*HashEmbedder
	batches int
	inputs  int
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batches++
	c.inputs += len(texts)
	return c.HashEmbedder.EmbedBatch(ctx, texts)
}

func TestCachedEmbedder_EmbedBatchOnlyMisses(t *testing.T) {
	inner := &countingEmbedder{HashEmbedder: NewHashEmbedder(8)}
	c := NewCachedEmbedder(inner, cache.NewLRU[string, []float32](10, time.Hour))
	ctx := context.Background()
	if _, err := c.EmbedBatch(ctx, []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	out, err := c.EmbedBatch(ctx, []string{"b", "c", "a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 || out[0] == nil || out[1] == nil || out[2] == nil {
		t.Fatalf("unexpected output: %v", out)
	}
	if inner.batches != 2 || inner.inputs != 3 {
		t.Errorf("inner calls: batches=%d inputs=%d, want 2 and 3", inner.batches, inner.inputs)
	}
	if c.Dimensions() != 8 {
		t.Errorf("Dimensions: got %d", c.Dimensions())
	}
}

// miscountingEmbedder drops or repeats trailing vectors.
type miscountingEmbedder struct {
	*HashEmbedder
	delta int
}

func (m *miscountingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := m.HashEmbedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if m.delta < 0 {
		return vecs[:len(vecs)+m.delta], nil
	}
	for i := 0; i < m.delta; i++ {
		vecs = append(vecs, vecs[0])
	}
	return vecs, nil
}

func TestCachedEmbedder_EmbedBatchCountMismatch(t *testing.T) {
	tests := []struct {
		name  string
		delta int
	}{
		{"too_few", -1},
		{"too_many", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lru := cache.NewLRU[string, []float32](10, time.Hour)
			c := NewCachedEmbedder(&miscountingEmbedder{HashEmbedder: NewHashEmbedder(8), delta: tt.delta}, lru)
			out, err := c.EmbedBatch(context.Background(), []string{"a", "b", "c"})
			if err == nil {
				t.Fatalf("expected error, got %d vectors", len(out))
			}
			if _, ok := lru.Get("a"); ok {
				t.Error("mismatched batch should not be cached")
			}
		})
	}
}

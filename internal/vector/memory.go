package vector

import (
	"fmt"
	"sort"
)

// Result is a single similarity hit. Position is the insertion order of the entry.
type Result struct {
	ID       string
	Score    float64
	Position int
}

// MemoryIndex is a brute-force cosine index that keeps insertion order.
// Entries without a vector are kept and score 0, so every id can be ranked.
type MemoryIndex struct {
	ids     []string
	vectors [][]float32
}

// NewMemoryIndex returns an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Add appends an entry. vec may be nil.
func (m *MemoryIndex) Add(id string, vec []float32) {
	m.ids = append(m.ids, id)
	m.vectors = append(m.vectors, vec)
}

// AddBatch appends entries; ids and vectors must have equal length.
func (m *MemoryIndex) AddBatch(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	for i, id := range ids {
		m.Add(id, vectors[i])
	}
	return nil
}

// Size returns the number of entries.
func (m *MemoryIndex) Size() int {
	return len(m.ids)
}

// Search returns at most k entries ordered by non-increasing cosine similarity.
// Ties keep insertion order. k <= 0 returns nil.
func (m *MemoryIndex) Search(query []float32, k int) []Result {
	if k <= 0 || len(m.ids) == 0 {
		return nil
	}
	scores := make([]Result, len(m.ids))
	for i, vec := range m.vectors {
		scores[i] = Result{ID: m.ids[i], Score: CosineSimilarity(query, vec), Position: i}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k]
}

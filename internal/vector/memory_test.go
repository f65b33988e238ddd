package vector

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2}, []float32{1, 2}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-2, 0}, -1},
		{"unnormalized", []float32{3, 0}, []float32{1, 0}, 1},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestMemoryIndex_SearchOrderAndTies(t *testing.T) {
	m := NewMemoryIndex()
	m.Add("a", []float32{0, 1})
	m.Add("b", []float32{1, 0})
	m.Add("c", nil)
	m.Add("d", []float32{1, 0})

	got := m.Search([]float32{1, 0}, 10)
	if len(got) != 4 {
		t.Fatalf("got %d results, want 4", len(got))
	}
	wantOrder := []string{"b", "d", "a", "c"}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Errorf("result %d = %s, want %s", i, got[i].ID, id)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("scores not non-increasing at %d", i)
		}
	}
}

func TestMemoryIndex_SearchClampsK(t *testing.T) {
	m := NewMemoryIndex()
	if err := m.AddBatch([]string{"a", "b"}, [][]float32{{1}, {1}}); err != nil {
		t.Fatal(err)
	}
	for _, k := range []int{-1, 0, 1, 2, 5} {
		got := m.Search([]float32{1}, k)
		want := k
		if want < 0 {
			want = 0
		}
		if want > 2 {
			want = 2
		}
		if len(got) != want {
			t.Errorf("k=%d: got %d results, want %d", k, len(got), want)
		}
	}
	if err := m.AddBatch([]string{"x"}, nil); err == nil {
		t.Error("expected length mismatch error")
	}
}

func TestNormalize(t *testing.T) {
	x := []float32{3, 4}
	Normalize(x)
	if math.Abs(float64(x[0])-0.6) > 1e-6 || math.Abs(float64(x[1])-0.8) > 1e-6 {
		t.Errorf("got %v", x)
	}
	if n := L2Norm(x); math.Abs(n-1) > 1e-6 {
		t.Errorf("norm = %v, want 1", n)
	}
	zero := []float32{0, 0}
	Normalize(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}

package models

import (
	"errors"
	"testing"
)

func TestKnowledgeGraph_Validate(t *testing.T) {
	base := func() KnowledgeGraph {
		return KnowledgeGraph{
			Concepts: []ConceptNode{
				{ID: "c1", Name: "Cells", Difficulty: DifficultyEasy},
				{ID: "c2", Name: "Mitosis", Difficulty: DifficultyMedium},
			},
			Relationships: []Relationship{{From: "c2", To: "c1", Kind: RelationRequires}},
			Embeddings:    map[string][]float32{"c1": {1, 0}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(g *KnowledgeGraph)
		wantErr bool
	}{
		{"valid", func(g *KnowledgeGraph) {}, false},
		{"duplicate id", func(g *KnowledgeGraph) { g.Concepts[1].ID = "c1" }, true},
		{"unknown edge endpoint", func(g *KnowledgeGraph) { g.Relationships[0].To = "c9" }, true},
		{"unknown embedding key", func(g *KnowledgeGraph) { g.Embeddings["c9"] = []float32{1} }, true},
		{"bad kind", func(g *KnowledgeGraph) { g.Relationships[0].Kind = "causes" }, true},
		{"bad difficulty", func(g *KnowledgeGraph) { g.Concepts[0].Difficulty = "extreme" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := base()
			tt.mutate(&g)
			err := g.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := map[string]Difficulty{
		"easy":     DifficultyEasy,
		" Hard ":   DifficultyHard,
		"advanced": DifficultyHard,
		"":         DifficultyMedium,
		"whatever": DifficultyMedium,
	}
	for in, want := range tests {
		if got := ParseDifficulty(in); got != want {
			t.Errorf("ParseDifficulty(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole("Expert"); err != nil || r != RoleExpert {
		t.Errorf("ParseRole(Expert) = %s, %v", r, err)
	}
	if _, err := ParseRole("narrator"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestIntelligentPodcast_TotalDuration(t *testing.T) {
	p := &IntelligentPodcast{Segments: []PodcastSegment{
		{Duration: 1.4}, {Duration: 2.3}, {Duration: 0},
	}}
	if got := p.TotalDuration(); got != 4 {
		t.Errorf("TotalDuration() = %d, want 4", got)
	}
}

func TestSegment_HasAudio(t *testing.T) {
	missing := PodcastSegment{}
	empty := PodcastSegment{AudioURL: "http://assets/x.wav", Duration: 0}
	if missing.HasAudio() {
		t.Error("segment without url should not have audio")
	}
	if !empty.HasAudio() {
		t.Error("zero-length clip should still have audio")
	}
}

func TestStageError_Unwrap(t *testing.T) {
	err := NewStageError(StagePlanning, ErrInput)
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StagePlanning {
		t.Fatalf("expected StageError, got %v", err)
	}
	if !errors.Is(err, ErrInput) {
		t.Error("StageError should unwrap to its cause")
	}
	if NewStageError(StagePlanning, nil) != nil {
		t.Error("nil cause should yield nil error")
	}
}

package models

import (
	"fmt"
	"math"
	"time"
)

// ConceptNode is a named idea extracted from source documents.
type ConceptNode struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Difficulty      Difficulty `json:"difficulty"`
	RelatedConcepts []string   `json:"related_concepts"`
	FirstMention    *float64   `json:"first_mention,omitempty"`
}

// Relationship is a typed edge between two concepts.
type Relationship struct {
	From string       `json:"from"`
	To   string       `json:"to"`
	Kind RelationKind `json:"kind"`
}

// KnowledgeGraph holds concepts, their relationships, and one embedding per concept.
type KnowledgeGraph struct {
	Concepts      []ConceptNode        `json:"concepts"`
	Relationships []Relationship       `json:"relationships"`
	Embeddings    map[string][]float32 `json:"embeddings,omitempty"`
}

// Concept returns the concept with id, if any.
func (g *KnowledgeGraph) Concept(id string) (*ConceptNode, bool) {
	for i := range g.Concepts {
		if g.Concepts[i].ID == id {
			return &g.Concepts[i], true
		}
	}
	return nil, false
}

// ConceptIDs returns the set of concept ids in the graph.
func (g *KnowledgeGraph) ConceptIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(g.Concepts))
	for _, c := range g.Concepts {
		ids[c.ID] = struct{}{}
	}
	return ids
}

// Validate checks that ids are unique and every edge and embedding references an existing concept.
func (g *KnowledgeGraph) Validate() error {
	ids := make(map[string]struct{}, len(g.Concepts))
	for _, c := range g.Concepts {
		if c.ID == "" {
			return fmt.Errorf("concept %q has empty id", c.Name)
		}
		if _, dup := ids[c.ID]; dup {
			return fmt.Errorf("duplicate concept id %s", c.ID)
		}
		if !c.Difficulty.Valid() {
			return fmt.Errorf("concept %s has invalid difficulty %q", c.ID, c.Difficulty)
		}
		ids[c.ID] = struct{}{}
	}
	for _, r := range g.Relationships {
		if _, ok := ids[r.From]; !ok {
			return fmt.Errorf("relationship from unknown concept %s", r.From)
		}
		if _, ok := ids[r.To]; !ok {
			return fmt.Errorf("relationship to unknown concept %s", r.To)
		}
		if !r.Kind.Valid() {
			return fmt.Errorf("relationship %s->%s has invalid kind %q", r.From, r.To, r.Kind)
		}
	}
	for id := range g.Embeddings {
		if _, ok := ids[id]; !ok {
			return fmt.Errorf("embedding for unknown concept %s", id)
		}
	}
	return nil
}

// PodcastChapter is an ordered, time-bounded group of segments.
type PodcastChapter struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	StartTime  float64    `json:"start_time"`
	EndTime    float64    `json:"end_time"`
	Concepts   []string   `json:"concepts"`
	Difficulty Difficulty `json:"difficulty"`
	Summary    string     `json:"summary"`
}

// PodcastSegment is one spoken turn of the dialogue.
type PodcastSegment struct {
	ID                   string     `json:"id"`
	ChapterID            string     `json:"chapter_id"`
	Speaker              Role       `json:"speaker"`
	Text                 string     `json:"text"`
	AudioURL             string     `json:"audio_url,omitempty"`
	Duration             float64    `json:"duration"`
	Timestamp            float64    `json:"timestamp"`
	Concepts             []string   `json:"concepts"`
	IsQuestionBreakpoint bool       `json:"is_question_breakpoint"`
	Difficulty           Difficulty `json:"difficulty"`
}

// HasAudio reports whether the segment has a synthesized asset. A zero-length
// clip still has audio; a failed synthesis does not.
func (s *PodcastSegment) HasAudio() bool {
	return s.AudioURL != ""
}

// PredictedQuestion is an anticipated audience question with a prepared answer.
type PredictedQuestion struct {
	ID               string   `json:"id"`
	Question         string   `json:"question"`
	Answer           string   `json:"answer"`
	RelevantConcepts []string `json:"relevant_concepts"`
	RelatedSegments  []string `json:"related_segments"`
	AudioURL         string   `json:"audio_url,omitempty"`
}

// VoiceProfile maps a dialogue role to a provider-specific voice.
type VoiceProfile struct {
	ID          string        `json:"id"`
	Role        Role          `json:"role"`
	Name        string        `json:"name"`
	Provider    VoiceProvider `json:"provider"`
	VoiceID     string        `json:"voice_id"`
	Description string        `json:"description,omitempty"`
}

// IntelligentPodcast is the aggregate root of a generation run.
type IntelligentPodcast struct {
	ID                 string              `json:"id"`
	OwnerID            string              `json:"owner_id"`
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	Duration           int                 `json:"duration"`
	Language           string              `json:"language"`
	DocumentIDs        []string            `json:"document_ids"`
	KnowledgeGraph     KnowledgeGraph      `json:"knowledge_graph"`
	Chapters           []PodcastChapter    `json:"chapters"`
	Segments           []PodcastSegment    `json:"segments"`
	PredictedQuestions []PredictedQuestion `json:"predicted_questions"`
	Status             Status              `json:"status"`
	Progress           int                 `json:"progress"`
	Error              string              `json:"error,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// TotalDuration returns the rounded sum of segment durations in seconds.
func (p *IntelligentPodcast) TotalDuration() int {
	var sum float64
	for _, s := range p.Segments {
		sum += s.Duration
	}
	return int(math.Round(sum))
}

// Summary returns the generation response shape for p.
func (p *IntelligentPodcast) Summary() *GenerateSummary {
	return &GenerateSummary{
		ID:                     p.ID,
		Title:                  p.Title,
		Description:            p.Description,
		Duration:               p.Duration,
		ChapterCount:           len(p.Chapters),
		SegmentCount:           len(p.Segments),
		PredictedQuestionCount: len(p.PredictedQuestions),
		Status:                 p.Status,
	}
}

// GenerateRequest is the input for generating a podcast.
type GenerateRequest struct {
	OwnerID        string        `json:"-"`
	DocumentIDs    []string      `json:"document_ids"`
	TargetDuration int           `json:"target_duration"`
	Language       string        `json:"language,omitempty"`
	Style          string        `json:"style,omitempty"`
	VoiceProvider  VoiceProvider `json:"voice_provider,omitempty"`
}

// GenerateSummary is the response of a generation request.
type GenerateSummary struct {
	ID                     string `json:"id"`
	Title                  string `json:"title"`
	Description            string `json:"description"`
	Duration               int    `json:"duration"`
	ChapterCount           int    `json:"chapter_count"`
	SegmentCount           int    `json:"segment_count"`
	PredictedQuestionCount int    `json:"predicted_question_count"`
	Status                 Status `json:"status"`
}

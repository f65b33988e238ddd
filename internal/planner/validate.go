package planner

import (
	"fmt"

	"github.com/hyperjump/studycast/internal/models"
)

// Validate checks the structural guarantees of a script against graph:
// every chapter has a segment, segments follow chapter order with
// non-decreasing timestamps, chapters are contiguous from 0, and every
// referenced concept exists.
func (s *Script) Validate(graph *models.KnowledgeGraph) error {
	if len(s.Chapters) == 0 {
		return fmt.Errorf("script has no chapters")
	}
	known := graph.ConceptIDs()
	chapterIndex := make(map[string]int, len(s.Chapters))
	for i, ch := range s.Chapters {
		if _, dup := chapterIndex[ch.ID]; dup {
			return fmt.Errorf("duplicate chapter id %s", ch.ID)
		}
		chapterIndex[ch.ID] = i
		for _, id := range ch.Concepts {
			if _, ok := known[id]; !ok {
				return fmt.Errorf("chapter %s references unknown concept %s", ch.ID, id)
			}
		}
	}

	counts := make([]int, len(s.Chapters))
	segmentIDs := make(map[string]bool, len(s.Segments))
	lastChapter := 0
	lastTime := 0.0
	for _, seg := range s.Segments {
		ci, ok := chapterIndex[seg.ChapterID]
		if !ok {
			return fmt.Errorf("segment %s belongs to unknown chapter %s", seg.ID, seg.ChapterID)
		}
		if ci < lastChapter {
			return fmt.Errorf("segment %s is out of chapter order", seg.ID)
		}
		if seg.Timestamp < lastTime {
			return fmt.Errorf("segment %s timestamp %.2f precedes %.2f", seg.ID, seg.Timestamp, lastTime)
		}
		if !seg.Speaker.Valid() {
			return fmt.Errorf("segment %s has invalid speaker %q", seg.ID, seg.Speaker)
		}
		for _, id := range seg.Concepts {
			if _, ok := known[id]; !ok {
				return fmt.Errorf("segment %s references unknown concept %s", seg.ID, id)
			}
		}
		lastChapter, lastTime = ci, seg.Timestamp
		counts[ci]++
		segmentIDs[seg.ID] = true
	}
	for i, n := range counts {
		if n == 0 {
			return fmt.Errorf("chapter %s has no segments", s.Chapters[i].ID)
		}
	}

	prevEnd := 0.0
	for _, ch := range s.Chapters {
		if ch.StartTime != prevEnd {
			return fmt.Errorf("chapter %s starts at %.2f, want %.2f", ch.ID, ch.StartTime, prevEnd)
		}
		if ch.EndTime < ch.StartTime {
			return fmt.Errorf("chapter %s ends before it starts", ch.ID)
		}
		prevEnd = ch.EndTime
	}

	for _, q := range s.PredictedQuestions {
		if len(q.RelevantConcepts) == 0 {
			return fmt.Errorf("question %s has no relevant concept", q.ID)
		}
		for _, id := range q.RelevantConcepts {
			if _, ok := known[id]; !ok {
				return fmt.Errorf("question %s references unknown concept %s", q.ID, id)
			}
		}
		if len(q.RelatedSegments) == 0 {
			return fmt.Errorf("question %s has no related segment", q.ID)
		}
		for _, id := range q.RelatedSegments {
			if !segmentIDs[id] {
				return fmt.Errorf("question %s references unknown segment %s", q.ID, id)
			}
		}
	}
	return nil
}

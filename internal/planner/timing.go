package planner

import (
	"math"

	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/pkg/utils"
)

// EstimateSeconds is the narration length of text at wordsPerMinute.
func EstimateSeconds(text string, wordsPerMinute int) float64 {
	if wordsPerMinute <= 0 {
		return 0
	}
	return float64(utils.WordCount(text)) * 60 / float64(wordsPerMinute)
}

// layout assigns timestamps and chapter bounds from per-segment lengths.
// Chapters are contiguous from 0; a chapter's end is the start of the next.
func layout(chapters []models.PodcastChapter, segments []models.PodcastSegment, length func(*models.PodcastSegment) float64) {
	chapterIndex := make(map[string]int, len(chapters))
	for i := range chapters {
		chapterIndex[chapters[i].ID] = i
	}
	ends := make([]float64, len(chapters))
	var clock float64
	for i := range segments {
		seg := &segments[i]
		seg.Timestamp = round2(clock)
		clock += length(seg)
		if ci, ok := chapterIndex[seg.ChapterID]; ok {
			ends[ci] = clock
		}
	}
	var start float64
	for i := range chapters {
		end := ends[i]
		if end < start {
			end = start
		}
		chapters[i].StartTime = round2(start)
		chapters[i].EndTime = round2(end)
		start = end
	}
}

// Retime recomputes timestamps and chapter bounds from real segment durations.
// Segments without audio contribute 0.
func Retime(chapters []models.PodcastChapter, segments []models.PodcastSegment) {
	layout(chapters, segments, func(s *models.PodcastSegment) float64 { return s.Duration })
}

// AnnotateFirstMentions sets each concept's first-mention time to the timestamp
// of the first segment that references it.
func AnnotateFirstMentions(graph *models.KnowledgeGraph, segments []models.PodcastSegment) {
	first := make(map[string]float64)
	for _, seg := range segments {
		for _, id := range seg.Concepts {
			if _, seen := first[id]; !seen {
				first[id] = seg.Timestamp
			}
		}
	}
	for i := range graph.Concepts {
		c := &graph.Concepts[i]
		if ts, ok := first[c.ID]; ok {
			ts := ts
			c.FirstMention = &ts
		} else {
			c.FirstMention = nil
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

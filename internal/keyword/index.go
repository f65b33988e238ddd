// Package keyword provides keyword (BM25) search over podcast transcripts.
package keyword

import (
	"context"

	"github.com/hyperjump/studycast/internal/models"
)

// SearchOptions optional parameters for transcript search. Nil means use defaults.
type SearchOptions struct {
	// PhraseBoost multiplies the score of segments where the query terms appear
	// together. Use 1.0 for no boost.
	PhraseBoost float64
	// FuzzyEnabled matches terms within Fuzziness edits for typo tolerance.
	FuzzyEnabled bool
	// Fuzziness is the maximum edit distance (1 or 2). Default is 1.
	Fuzziness int
}

// TranscriptIndex defines transcript keyword search operations.
type TranscriptIndex interface {
	// IndexPodcast replaces every indexed segment of podcastID.
	IndexPodcast(ctx context.Context, podcastID string, chapters []models.PodcastChapter, segments []models.PodcastSegment) error
	Search(ctx context.Context, podcastID, query string, limit int, opts *SearchOptions) ([]*Hit, error)
	DeletePodcast(ctx context.Context, podcastID string) error
	DocCount() (uint64, error)
	Close() error
}

// Hit is a single transcript search hit.
type Hit struct {
	SegmentID string
	Score     float64
}

// TermDictionary lists indexed terms with their document frequency.
type TermDictionary interface {
	Terms() (map[string]int, error)
}

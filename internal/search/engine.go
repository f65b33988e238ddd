// Package search answers questions against a generated podcast: semantic
// search through its knowledge graph and keyword search over its transcript.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hyperjump/studycast/internal/keyword"
	"github.com/hyperjump/studycast/internal/knowledge"
	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/pkg/utils"
	"go.uber.org/zap"
)

const (
	// TopConcepts is how many graph concepts a query is matched against.
	TopConcepts = 5
	// MaxResults caps the returned segments.
	MaxResults = 10
	// SnippetLength is the number of characters kept from segment text.
	SnippetLength = 200
)

// ConceptMatcher ranks graph concepts by similarity to a query.
type ConceptMatcher interface {
	FindSimilarConcepts(ctx context.Context, query string, graph *models.KnowledgeGraph, k int) ([]knowledge.ScoredConcept, error)
}

// Engine runs podcast searches.
type Engine struct {
	matcher     ConceptMatcher
	transcripts keyword.TranscriptIndex
	suggester   *keyword.Suggester
	logger      *zap.Logger
}

// NewEngine creates a search engine. transcripts and suggester may be nil,
// which disables transcript search and suggestions respectively.
func NewEngine(matcher ConceptMatcher, transcripts keyword.TranscriptIndex, suggester *keyword.Suggester, logger *zap.Logger) *Engine {
	return &Engine{matcher: matcher, transcripts: transcripts, suggester: suggester, logger: utils.LoggerOrNop(logger)}
}

// Search matches query to the podcast's top concepts and returns the segments
// that discuss them. Relevance is the share of matched concepts a segment
// covers; ties keep segment order.
func (e *Engine) Search(ctx context.Context, p *models.IntelligentPodcast, query string) (*models.SearchResponse, error) {
	startTime := time.Now()
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.InputErrorf("query is required")
	}
	scored, err := e.matcher.FindSimilarConcepts(ctx, query, &p.KnowledgeGraph, TopConcepts)
	if err != nil {
		return nil, fmt.Errorf("concept match failed: %w", err)
	}

	matched := make(map[string]models.MatchedConcept, len(scored))
	concepts := make([]models.MatchedConcept, 0, len(scored))
	for _, sc := range scored {
		mc := models.MatchedConcept{ID: sc.Concept.ID, Name: sc.Concept.Name, Description: sc.Concept.Description}
		matched[mc.ID] = mc
		concepts = append(concepts, mc)
	}

	results := make([]models.SearchResult, 0)
	if len(matched) > 0 {
		for _, seg := range p.Segments {
			var hit []models.MatchedConcept
			seen := make(map[string]bool)
			for _, id := range seg.Concepts {
				if mc, ok := matched[id]; ok && !seen[id] {
					seen[id] = true
					hit = append(hit, mc)
				}
			}
			if len(hit) == 0 {
				continue
			}
			results = append(results, models.SearchResult{
				SegmentID: seg.ID,
				Timestamp: seg.Timestamp,
				Relevance: float64(len(hit)) / float64(len(matched)),
				Snippet:   utils.Snippet(seg.Text, SnippetLength),
				Concepts:  hit,
			})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Relevance > results[j].Relevance })
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}

	e.logger.Debug("podcast search",
		zap.String("podcast", p.ID), zap.String("query", query),
		zap.Int("concepts", len(concepts)), zap.Int("results", len(results)))
	return &models.SearchResponse{
		Query:     query,
		Results:   results,
		Concepts:  concepts,
		QueryTime: time.Since(startTime).Milliseconds(),
	}, nil
}

// SearchTranscript runs a keyword search over one podcast's transcript. When
// nothing matches, a corrected query is suggested from the indexed vocabulary.
func (e *Engine) SearchTranscript(ctx context.Context, podcastID, query string, limit int) (*models.TranscriptResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.InputErrorf("query is required")
	}
	if e.transcripts == nil {
		return nil, fmt.Errorf("transcript search is not configured")
	}
	if limit <= 0 || limit > MaxResults {
		limit = MaxResults
	}
	hits, err := e.transcripts.Search(ctx, podcastID, query, limit, &keyword.SearchOptions{PhraseBoost: 1.5})
	if err != nil {
		return nil, err
	}
	resp := &models.TranscriptResponse{Query: query, Results: make([]models.TranscriptHit, 0, len(hits))}
	for _, h := range hits {
		resp.Results = append(resp.Results, models.TranscriptHit{SegmentID: h.SegmentID, Score: h.Score})
	}
	if len(resp.Results) == 0 && e.suggester != nil {
		suggestion, changed, err := e.suggester.Suggest(query)
		if err != nil {
			e.logger.Warn("query suggestion failed", zap.Error(err))
		} else if changed {
			resp.Suggestion = suggestion
		}
	}
	return resp, nil
}

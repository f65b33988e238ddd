package keyword

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/studycast/internal/models"
)

// maxSegmentsPerPodcast bounds lookups of a podcast's indexed segments.
const maxSegmentsPerPodcast = 10000

// BleveIndex implements TranscriptIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

var _ TranscriptIndex = (*BleveIndex)(nil)

func segmentMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so concept names match as spoken.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	docMapping.AddFieldMappingsAt("chapter", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("podcast_id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("segment_id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("speaker", keywordFieldMapping)
	im.AddDocumentMapping("segment", docMapping)
	im.DefaultType = "segment"
	im.DefaultMapping = docMapping
	return im
}

// NewBleveIndex creates or opens a Bleve index at path.
// If you change the index mapping in code, remove the index directory; transcripts
// are re-indexed from the database on startup.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}
	index, err := bleve.New(path, segmentMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewMemoryIndex creates an in-memory Bleve index.
func NewMemoryIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(segmentMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func docID(podcastID, segmentID string) string {
	return podcastID + "/" + segmentID
}

// IndexPodcast replaces the indexed segments of podcastID in one batch.
func (b *BleveIndex) IndexPodcast(ctx context.Context, podcastID string, chapters []models.PodcastChapter, segments []models.PodcastSegment) error {
	existing, err := b.podcastDocIDs(podcastID)
	if err != nil {
		return err
	}
	titles := make(map[string]string, len(chapters))
	for _, ch := range chapters {
		titles[ch.ID] = ch.Title
	}
	batch := b.index.NewBatch()
	for _, id := range existing {
		batch.Delete(id)
	}
	for _, seg := range segments {
		err := batch.Index(docID(podcastID, seg.ID), map[string]interface{}{
			"podcast_id": podcastID,
			"segment_id": seg.ID,
			"speaker":    string(seg.Speaker),
			"chapter":    titles[seg.ChapterID],
			"text":       seg.Text,
		})
		if err != nil {
			return fmt.Errorf("failed to index segment %s: %w", seg.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to index podcast %s: %w", podcastID, err)
	}
	return nil
}

// Search runs a match (or fuzzy) query over one podcast's segment text and
// returns up to limit hits. With PhraseBoost > 1, segments containing the
// query as a phrase are boosted.
func (b *BleveIndex) Search(ctx context.Context, podcastID, query string, limit int, opts *SearchOptions) ([]*Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.InputErrorf("query is required")
	}
	if limit <= 0 {
		limit = 10
	}
	phraseBoost := 1.0
	fuzzyEnabled := false
	fuzziness := 1
	if opts != nil {
		if opts.PhraseBoost > 0 {
			phraseBoost = opts.PhraseBoost
		}
		fuzzyEnabled = opts.FuzzyEnabled
		if opts.Fuzziness > 0 {
			fuzziness = opts.Fuzziness
		}
	}

	var textQuery blevequery.Query
	if fuzzyEnabled {
		textQuery = buildFuzzyQuery(query, fuzziness, "text")
	} else {
		mq := bleve.NewMatchQuery(query)
		mq.SetField("text")
		textQuery = mq
	}
	req := bleve.NewSearchRequest(bleve.NewConjunctionQuery(podcastFilter(podcastID), textQuery))
	req.Size = limit * 2
	req.Fields = []string{"segment_id"}
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	phrases := map[string]bool{}
	if phraseBoost > 1 && len(tokenizeQuery(query)) > 1 {
		phrases = b.findPhraseMatches(ctx, podcastID, query, req.Size)
	}

	hits := make([]*Hit, 0, len(results.Hits))
	for _, h := range results.Hits {
		score := h.Score
		if phrases[h.ID] {
			score *= phraseBoost
		}
		hits = append(hits, &Hit{SegmentID: segmentIDOf(podcastID, h.ID), Score: score})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func podcastFilter(podcastID string) blevequery.Query {
	tq := bleve.NewTermQuery(podcastID)
	tq.SetField("podcast_id")
	return tq
}

func segmentIDOf(podcastID, id string) string {
	return strings.TrimPrefix(id, podcastID+"/")
}

// tokenizeQuery splits query into lowercase terms.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// buildFuzzyQuery creates a disjunction of FuzzyQueries, one per term.
func buildFuzzyQuery(queryStr string, fuzziness int, field string) blevequery.Query {
	terms := tokenizeQuery(queryStr)
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField(field)
		queries = append(queries, fq)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// findPhraseMatches returns the ids of segments where the query appears as a phrase.
func (b *BleveIndex) findPhraseMatches(ctx context.Context, podcastID, query string, size int) map[string]bool {
	matches := make(map[string]bool)
	pq := bleve.NewMatchPhraseQuery(query)
	pq.SetField("text")
	req := bleve.NewSearchRequest(bleve.NewConjunctionQuery(podcastFilter(podcastID), pq))
	req.Size = size
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return matches
	}
	for _, hit := range results.Hits {
		matches[hit.ID] = true
	}
	return matches
}

func (b *BleveIndex) podcastDocIDs(podcastID string) ([]string, error) {
	req := bleve.NewSearchRequest(podcastFilter(podcastID))
	req.Size = maxSegmentsPerPodcast
	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve lookup failed: %w", err)
	}
	ids := make([]string, len(results.Hits))
	for i, h := range results.Hits {
		ids[i] = h.ID
	}
	return ids, nil
}

// DeletePodcast removes every indexed segment of podcastID.
func (b *BleveIndex) DeletePodcast(ctx context.Context, podcastID string) error {
	ids, err := b.podcastDocIDs(podcastID)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	batch := b.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return b.index.Batch(batch)
}

// DocCount returns the total number of indexed segments.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Terms returns every term of the text field with its document frequency.
func (b *BleveIndex) Terms() (map[string]int, error) {
	dict, err := b.index.FieldDict("text")
	if err != nil {
		return nil, fmt.Errorf("failed to read term dictionary: %w", err)
	}
	defer dict.Close()
	terms := make(map[string]int)
	for {
		entry, err := dict.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to read term dictionary: %w", err)
		}
		if entry == nil {
			break
		}
		terms[entry.Term] = int(entry.Count)
	}
	return terms, nil
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

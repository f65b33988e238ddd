package models

// SearchQuery is the body of a podcast search request.
type SearchQuery struct {
	Query string `json:"query"`
}

// MatchedConcept is a concept that matched a search query.
type MatchedConcept struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SearchResult is one matching segment.
type SearchResult struct {
	SegmentID string           `json:"segment_id"`
	Timestamp float64          `json:"timestamp"`
	Relevance float64          `json:"relevance"`
	Snippet   string           `json:"snippet"`
	Concepts  []MatchedConcept `json:"concepts"`
}

// SearchResponse is the response for a podcast search request.
type SearchResponse struct {
	Query     string           `json:"query"`
	Results   []SearchResult   `json:"results"`
	Concepts  []MatchedConcept `json:"concepts"`
	QueryTime int64            `json:"query_time_ms"`
}

// TranscriptHit is a keyword match against segment text.
type TranscriptHit struct {
	SegmentID string  `json:"segment_id"`
	Score     float64 `json:"score"`
}

// TranscriptResponse is the response for a transcript keyword search.
type TranscriptResponse struct {
	Query   string          `json:"query"`
	Results []TranscriptHit `json:"results"`
	// Suggestion is a corrected query offered when nothing matched.
	Suggestion string `json:"suggestion,omitempty"`
}

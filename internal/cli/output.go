// Package cli provides output helpers for the studycast command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes a concept search response in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d segment(s) in %dms\n", len(response.Results), response.QueryTime)
	if len(response.Concepts) > 0 {
		names := make([]string, len(response.Concepts))
		for i, c := range response.Concepts {
			names[i] = c.Name
		}
		fmt.Fprintf(w, "Matched concepts: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintln(w)
	for _, r := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[%s] %s | Relevance: %.2f\n", FormatTimestamp(r.Timestamp), r.SegmentID, r.Relevance)
		fmt.Fprintf(w, "\n%s\n\n", r.Snippet)
	}
	return nil
}

// WriteTranscriptResults writes keyword hits in the given format.
func WriteTranscriptResults(w io.Writer, response *models.TranscriptResponse, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, response)
	}
	if len(response.Results) == 0 {
		fmt.Fprintf(w, "No transcript matches for %q\n", response.Query)
		if response.Suggestion != "" {
			fmt.Fprintf(w, "Did you mean: %s\n", response.Suggestion)
		}
		return nil
	}
	fmt.Fprintf(w, "%d transcript match(es) for %q\n", len(response.Results), response.Query)
	for _, hit := range response.Results {
		fmt.Fprintf(w, "  %-12s %.4f\n", hit.SegmentID, hit.Score)
	}
	return nil
}

// WriteGenerateSummary writes the result of a generation request.
func WriteGenerateSummary(w io.Writer, s *models.GenerateSummary, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, s)
	}
	fmt.Fprintf(w, "id:          %s\n", s.ID)
	fmt.Fprintf(w, "title:       %s\n", s.Title)
	if s.Description != "" {
		fmt.Fprintf(w, "description: %s\n", utils.Truncate(s.Description, 160))
	}
	fmt.Fprintf(w, "status:      %s\n", s.Status)
	fmt.Fprintf(w, "duration:    %s\n", FormatTimestamp(float64(s.Duration)))
	fmt.Fprintf(w, "chapters:    %d\n", s.ChapterCount)
	fmt.Fprintf(w, "segments:    %d\n", s.SegmentCount)
	fmt.Fprintf(w, "questions:   %d\n", s.PredictedQuestionCount)
	return nil
}

// FormatTimestamp renders seconds as m:ss.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

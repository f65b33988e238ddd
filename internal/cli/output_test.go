package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/studycast/internal/models"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{" JSON ", OutputJSON, false},
		{"compact", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteSearchResults(t *testing.T) {
	response := &models.SearchResponse{
		Query:     "light",
		QueryTime: 7,
		Concepts:  []models.MatchedConcept{{ID: "concept-1", Name: "Chlorophyll"}},
		Results:   []models.SearchResult{{SegmentID: "segment-3", Timestamp: 75, Relevance: 0.5, Snippet: "Leaves absorb light..."}},
	}

	var text bytes.Buffer
	if err := WriteSearchResults(&text, response, OutputText); err != nil {
		t.Fatal(err)
	}
	out := text.String()
	for _, want := range []string{"Found 1 segment(s) in 7ms", "Matched concepts: Chlorophyll", "[1:15] segment-3", "Leaves absorb light..."} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}

	var js bytes.Buffer
	if err := WriteSearchResults(&js, response, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.SearchResponse
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, js.String())
	}
	if decoded.Results[0].SegmentID != "segment-3" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteTranscriptResults_suggestion(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTranscriptResults(&buf, &models.TranscriptResponse{Query: "chlorofyll", Suggestion: "chlorophyll"}, OutputText)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Did you mean: chlorophyll") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteGenerateSummary(t *testing.T) {
	var buf bytes.Buffer
	s := &models.GenerateSummary{ID: "pod-1", Title: "Plants", Duration: 605, ChapterCount: 3, SegmentCount: 12, Status: models.StatusReady}
	if err := WriteGenerateSummary(&buf, s, OutputText); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"pod-1", "10:05", "chapters:    3", "ready"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{59.9, "0:59"},
		{61, "1:01"},
		{3600, "60:00"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.in); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

package knowledge

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hyperjump/studycast/internal/models"
)

func TestChunkDocuments(t *testing.T) {
	in := []models.DocumentContent{
		{ID: "a", Title: "Cells", Content: "Cells  are\n\nthe basic unit of life."},
		{ID: "b", Title: "", Content: "   "},
		{ID: "c", Title: "DNA", Content: strings.Repeat("helix ", 30)},
	}
	chunks := ChunkDocuments(in, 40)

	if chunks[0].DocumentID != "a" || chunks[0].Text != "# Cells\n\nCells are the basic unit of life." {
		t.Errorf("first chunk = %+v", chunks[0])
	}
	for _, c := range chunks {
		if c.DocumentID == "b" {
			t.Error("blank document should not produce chunks")
		}
		if n := utf8.RuneCountInString(c.Text); n > 40 {
			t.Errorf("chunk too long (%d): %q", n, c.Text)
		}
		if strings.HasSuffix(c.Text, "heli") {
			t.Errorf("chunk split inside a word: %q", c.Text)
		}
	}
	// Document c re-joined must equal its rendering.
	var parts []string
	for _, c := range chunks {
		if c.DocumentID == "c" {
			parts = append(parts, c.Text)
		}
	}
	joined := strings.Join(parts, " ")
	want := "# DNA\n\n" + strings.TrimSpace(strings.Repeat("helix ", 30))
	if joined != want {
		t.Errorf("joined chunks differ\n got %q\nwant %q", joined, want)
	}
	if len(parts) < 2 || chunks[len(chunks)-1].Index != len(parts)-1 {
		t.Errorf("expected multiple indexed chunks, got %d", len(parts))
	}
}

func TestSplitWords_longWord(t *testing.T) {
	got := splitWords("abcdefghij klm", 4)
	want := []string{"abcd", "efgh", "ij", "klm"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSplitWords_deterministic(t *testing.T) {
	s := strings.Repeat("żółw ", 100)
	a, b := splitWords(s, 33), splitWords(s, 33)
	if strings.Join(a, "|") != strings.Join(b, "|") {
		t.Error("chunking must be deterministic")
	}
}

func TestResolveLanguage(t *testing.T) {
	tagged := func(tags ...string) []models.DocumentContent {
		out := make([]models.DocumentContent, len(tags))
		for i, tag := range tags {
			out[i].Language = tag
		}
		return out
	}
	tests := []struct {
		name     string
		docs     []models.DocumentContent
		pinned   string
		fallback string
		want     string
	}{
		{"pinned wins", tagged("de", "de"), "fr", "", "fr"},
		{"majority", tagged("de", "en", "de"), "", "", "de"},
		{"tie goes to first tagged", tagged("", "es", "it", "it", "es"), "", "", "es"},
		{"case folded", tagged("DE", "de", "en"), "", "", "de"},
		{"no tags uses fallback", tagged("", ""), "", "pt", "pt"},
		{"no tags default", tagged(""), "", "", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveLanguage(tt.docs, tt.pinned, tt.fallback); got != tt.want {
				t.Errorf("ResolveLanguage() = %s, want %s", got, tt.want)
			}
		})
	}
}

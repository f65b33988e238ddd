package knowledge

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/pkg/utils"
)

// Chunk is one slice of one document sent to the model.
type Chunk struct {
	DocumentID string
	Index      int
	Text       string
}

// ChunkDocuments renders each document as "# <title>\n\n<text>" and splits it on
// word boundaries into chunks of at most maxChars characters. Chunks never span
// documents and keep input order. Blank documents produce no chunks.
func ChunkDocuments(docs []models.DocumentContent, maxChars int) []Chunk {
	var chunks []Chunk
	for _, doc := range docs {
		body := utils.CollapseWhitespace(doc.Content)
		title := strings.TrimSpace(doc.Title)
		rendered := body
		if title != "" {
			rendered = "# " + title + "\n\n" + body
		}
		for i, text := range splitWords(rendered, maxChars) {
			chunks = append(chunks, Chunk{DocumentID: doc.ID, Index: i, Text: text})
		}
	}
	return chunks
}

// splitWords cuts s into pieces of at most max runes, preferring the last
// whitespace inside the window. A word longer than max is hard-split.
func splitWords(s string, max int) []string {
	if max <= 0 {
		max = 1
	}
	var out []string
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		if s == "" {
			return out
		}
		if utf8.RuneCountInString(s) <= max {
			return append(out, strings.TrimRightFunc(s, unicode.IsSpace))
		}
		end := runeOffset(s, max)
		cut := end
		if r, _ := utf8.DecodeRuneInString(s[end:]); !unicode.IsSpace(r) {
			if i := strings.LastIndexFunc(s[:end], unicode.IsSpace); i > 0 {
				cut = i
			}
		}
		piece := strings.TrimRightFunc(s[:cut], unicode.IsSpace)
		if piece != "" {
			out = append(out, piece)
		}
		s = s[cut:]
	}
}

// runeOffset returns the byte offset just after the first n runes of s.
func runeOffset(s string, n int) int {
	i := 0
	for pos := range s {
		if i == n {
			return pos
		}
		i++
	}
	return len(s)
}

package knowledge

import (
	"strings"

	"github.com/hyperjump/studycast/internal/models"
)

// DefaultLanguage is used when neither a pinned language nor document tags are available.
const DefaultLanguage = "en"

// ResolveLanguage returns pinned when set, otherwise the majority language tag
// across docs. Ties go to whichever tied language appears first in document
// order. Without tags it returns fallback, or DefaultLanguage when fallback is empty.
func ResolveLanguage(docs []models.DocumentContent, pinned, fallback string) string {
	if p := strings.TrimSpace(pinned); p != "" {
		return p
	}
	counts := make(map[string]int)
	var order []string
	for _, d := range docs {
		tag := strings.ToLower(strings.TrimSpace(d.Language))
		if tag == "" {
			continue
		}
		if counts[tag] == 0 {
			order = append(order, tag)
		}
		counts[tag]++
	}
	best, bestCount := "", 0
	for _, tag := range order {
		if counts[tag] > bestCount {
			best, bestCount = tag, counts[tag]
		}
	}
	if best != "" {
		return best
	}
	if fallback != "" {
		return fallback
	}
	return DefaultLanguage
}

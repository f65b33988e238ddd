package keyword

import (
	"strings"
)

// Suggester proposes a corrected query from the indexed vocabulary.
type Suggester struct {
	dict        TermDictionary
	maxDistance int
	minFreq     int
}

// NewSuggester returns a Suggester. maxDistance <= 0 defaults to 2.
func NewSuggester(dict TermDictionary, maxDistance int) *Suggester {
	if maxDistance <= 0 {
		maxDistance = 2
	}
	return &Suggester{dict: dict, maxDistance: maxDistance, minFreq: 1}
}

// Suggest replaces each unknown query term with the closest indexed term
// (fewest edits, then highest frequency, then alphabetical). It reports false
// when no term changed.
func (s *Suggester) Suggest(query string) (string, bool, error) {
	terms, err := s.dict.Terms()
	if err != nil {
		return "", false, err
	}
	words := tokenizeQuery(query)
	changed := false
	for i, w := range words {
		if _, ok := terms[w]; ok {
			continue
		}
		if best, ok := s.closest(w, terms); ok {
			words[i] = best
			changed = true
		}
	}
	if !changed {
		return query, false, nil
	}
	return strings.Join(words, " "), true, nil
}

func (s *Suggester) closest(word string, terms map[string]int) (string, bool) {
	best, bestDist, bestFreq := "", s.maxDistance+1, 0
	n := len([]rune(word))
	for term, freq := range terms {
		if freq < s.minFreq {
			continue
		}
		if d := len([]rune(term)) - n; d > s.maxDistance || -d > s.maxDistance {
			continue
		}
		dist := EditDistance(word, term)
		if dist > s.maxDistance {
			continue
		}
		if dist < bestDist || (dist == bestDist && (freq > bestFreq || (freq == bestFreq && term < best))) {
			best, bestDist, bestFreq = term, dist, freq
		}
	}
	return best, best != ""
}

// EditDistance is the optimal string alignment distance between a and b:
// insertions, deletions, substitutions and adjacent transpositions each cost 1.
func EditDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	d := make([][]int, len(ra)+1)
	for i := range d {
		d[i] = make([]int, len(rb)+1)
		d[i][0] = i
	}
	for j := range d[0] {
		d[0][j] = j
	}
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			d[i][j] = min(d[i-1][j]+1, d[i][j-1]+1, d[i-1][j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				d[i][j] = min(d[i][j], d[i-2][j-2]+1)
			}
		}
	}
	return d[len(ra)][len(rb)]
}

package planner

import "github.com/hyperjump/studycast/internal/models"

// OrderConcepts returns concept indices in teaching order. A concept is emitted
// only after every concept it requires; among ready concepts one related to
// the previously emitted concept is preferred, then the lowest index. Cycles
// are broken by emitting the lowest-index remaining concept.
func OrderConcepts(graph *models.KnowledgeGraph) []int {
	n := len(graph.Concepts)
	index := make(map[string]int, n)
	for i, c := range graph.Concepts {
		index[c.ID] = i
	}

	indegree := make([]int, n)
	unlocks := make([][]int, n)
	related := make([]map[int]bool, n)
	for i := range related {
		related[i] = make(map[int]bool)
	}
	for _, r := range graph.Relationships {
		from, ok1 := index[r.From]
		to, ok2 := index[r.To]
		if !ok1 || !ok2 || from == to {
			continue
		}
		switch r.Kind {
		case models.RelationRequires:
			// from requires to: to comes first.
			unlocks[to] = append(unlocks[to], from)
			indegree[from]++
		case models.RelationRelated:
			related[from][to] = true
			related[to][from] = true
		}
	}

	emitted := make([]bool, n)
	order := make([]int, 0, n)
	last := -1
	for len(order) < n {
		pick, preferred := -1, -1
		for i := 0; i < n; i++ {
			if emitted[i] || indegree[i] > 0 {
				continue
			}
			if pick < 0 {
				pick = i
			}
			if last >= 0 && related[last][i] {
				preferred = i
				break
			}
		}
		if preferred >= 0 {
			pick = preferred
		}
		if pick < 0 {
			// Only cycles remain.
			for i := 0; i < n; i++ {
				if !emitted[i] {
					pick = i
					break
				}
			}
		}
		emitted[pick] = true
		order = append(order, pick)
		last = pick
		for _, next := range unlocks[pick] {
			indegree[next]--
		}
	}
	return order
}

// ChapterCount returns ceil(targetMinutes / minutesPerChapter) clamped to
// [minChapters, maxChapters], then capped by the number of concepts (at least 1).
func ChapterCount(targetMinutes, conceptCount int, s Settings) int {
	per := s.MinutesPerChapter
	if per <= 0 {
		per = 1
	}
	n := (targetMinutes + per - 1) / per
	if n < s.MinChapters {
		n = s.MinChapters
	}
	if n > s.MaxChapters {
		n = s.MaxChapters
	}
	if n > conceptCount {
		n = conceptCount
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Partition splits items into n contiguous groups whose sizes differ by at most one.
// Earlier groups take the remainder.
func Partition(items []int, n int) [][]int {
	if n <= 0 || len(items) == 0 {
		return nil
	}
	if n > len(items) {
		n = len(items)
	}
	groups := make([][]int, 0, n)
	base, extra := len(items)/n, len(items)%n
	start := 0
	for g := 0; g < n; g++ {
		size := base
		if g < extra {
			size++
		}
		groups = append(groups, items[start:start+size])
		start += size
	}
	return groups
}

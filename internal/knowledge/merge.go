package knowledge

import (
	"strings"

	"github.com/hyperjump/studycast/internal/models"
)

// merger folds per-chunk analyses into one graph. Concepts are keyed by
// case-folded name; ids follow first appearance.
type merger struct {
	max      int
	concepts []models.ConceptNode
	byName   map[string]int
	pending  []rawRelationship
	dropped  int
}

func newMerger(max int) *merger {
	return &merger{
		max:    max,
		byName: make(map[string]int),
	}
}

func nameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func (m *merger) addConcepts(raw []rawConcept) {
	for _, rc := range raw {
		name := strings.Join(strings.Fields(rc.Name), " ")
		if name == "" {
			continue
		}
		key := nameKey(name)
		if i, ok := m.byName[key]; ok {
			if m.concepts[i].Description == "" {
				m.concepts[i].Description = strings.TrimSpace(rc.Description)
			}
			continue
		}
		if len(m.concepts) >= m.max {
			m.dropped++
			continue
		}
		m.byName[key] = len(m.concepts)
		m.concepts = append(m.concepts, models.ConceptNode{
			ID:              conceptID(len(m.concepts)),
			Name:            name,
			Description:     strings.TrimSpace(rc.Description),
			Difficulty:      models.ParseDifficulty(rc.Difficulty),
			RelatedConcepts: []string{},
		})
	}
}

// addRelationships queues edges; they are resolved once every chunk has
// contributed its concepts.
func (m *merger) addRelationships(raw []rawRelationship) {
	m.pending = append(m.pending, raw...)
}

// resolve keeps edges whose endpoints are known concepts and whose kind
// parses. Self loops and duplicates are dropped.
func (m *merger) resolve() []models.Relationship {
	edges := []models.Relationship{}
	seen := make(map[models.Relationship]struct{})
	for _, rr := range m.pending {
		from, ok := m.byName[nameKey(rr.From)]
		if !ok {
			continue
		}
		to, ok := m.byName[nameKey(rr.To)]
		if !ok || from == to {
			continue
		}
		kind, ok := models.ParseRelationKind(rr.Type)
		if !ok {
			continue
		}
		edge := models.Relationship{From: m.concepts[from].ID, To: m.concepts[to].ID, Kind: kind}
		if _, dup := seen[edge]; dup {
			continue
		}
		seen[edge] = struct{}{}
		edges = append(edges, edge)
	}
	return edges
}

// graph returns the merged graph with RelatedConcepts filled from every edge.
func (m *merger) graph() models.KnowledgeGraph {
	index := make(map[string]int, len(m.concepts))
	for i, c := range m.concepts {
		index[c.ID] = i
	}
	link := func(a, b string) {
		c := &m.concepts[index[a]]
		for _, id := range c.RelatedConcepts {
			if id == b {
				return
			}
		}
		c.RelatedConcepts = append(c.RelatedConcepts, b)
	}
	edges := m.resolve()
	for _, e := range edges {
		link(e.From, e.To)
		link(e.To, e.From)
	}
	return models.KnowledgeGraph{Concepts: m.concepts, Relationships: edges}
}

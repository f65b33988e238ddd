// Package knowledge turns study documents into a concept graph with embeddings.
package knowledge

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/studycast/internal/embedding"
	"github.com/hyperjump/studycast/internal/llm"
	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/internal/vector"
	"github.com/hyperjump/studycast/pkg/utils"
	"go.uber.org/zap"
)

// fallbackDescriptionChars bounds the description of a concept built from a document title.
const fallbackDescriptionChars = 200

// Config holds extraction limits.
type Config struct {
	ChunkChars      int
	MaxChunks       int
	MaxConcepts     int
	DefaultLanguage string
}

// Result is the output of ExtractAndAnalyze.
type Result struct {
	Graph    models.KnowledgeGraph
	Language string
}

// ScoredConcept is a concept with its similarity to a query.
type ScoredConcept struct {
	Concept models.ConceptNode
	Score   float64
}

// Extractor builds knowledge graphs with a text generator and an embedder.
type Extractor struct {
	gen      llm.Generator
	embedder embedding.Embedder
	cfg      Config
	logger   *zap.Logger
}

// NewExtractor returns an Extractor. Zero limits fall back to sensible defaults.
func NewExtractor(gen llm.Generator, embedder embedding.Embedder, cfg Config, logger *zap.Logger) *Extractor {
	if cfg.ChunkChars <= 0 {
		cfg.ChunkChars = 12000
	}
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = 16
	}
	if cfg.MaxConcepts <= 0 {
		cfg.MaxConcepts = 24
	}
	return &Extractor{gen: gen, embedder: embedder, cfg: cfg, logger: utils.LoggerOrNop(logger)}
}

type rawConcept struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
}

type rawRelationship struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

type chunkAnalysis struct {
	Concepts      []rawConcept      `json:"concepts"`
	Relationships []rawRelationship `json:"relationships"`
}

// ExtractAndAnalyze builds the concept graph for docs and resolves the podcast language.
// Model or embedding failures are returned as extraction StageErrors.
func (e *Extractor) ExtractAndAnalyze(ctx context.Context, docs []models.DocumentContent, pinnedLanguage string) (*Result, error) {
	if len(docs) == 0 {
		return nil, models.InputErrorf("no documents to analyse")
	}
	language := ResolveLanguage(docs, pinnedLanguage, e.cfg.DefaultLanguage)

	chunks := ChunkDocuments(docs, e.cfg.ChunkChars)
	if len(chunks) > e.cfg.MaxChunks {
		e.logger.Info("dropping chunks beyond limit",
			zap.Int("chunks", len(chunks)), zap.Int("max_chunks", e.cfg.MaxChunks))
		chunks = chunks[:e.cfg.MaxChunks]
	}

	m := newMerger(e.cfg.MaxConcepts)
	for _, chunk := range chunks {
		text, err := e.gen.Generate(ctx, llm.Request{
			System: extractionSystemPrompt,
			Prompt: extractionPrompt(chunk, language),
			JSON:   true,
		})
		if err != nil {
			return nil, models.NewStageError(models.StageExtraction, fmt.Errorf("analyse chunk %d of %s: %w", chunk.Index, chunk.DocumentID, err))
		}
		var analysis chunkAnalysis
		if err := llm.DecodeJSON(text, &analysis); err != nil {
			return nil, models.NewStageError(models.StageExtraction, fmt.Errorf("analyse chunk %d of %s: %w", chunk.Index, chunk.DocumentID, err))
		}
		m.addConcepts(analysis.Concepts)
		m.addRelationships(analysis.Relationships)
	}
	if m.dropped > 0 {
		e.logger.Info("concept limit reached", zap.Int("max_concepts", e.cfg.MaxConcepts), zap.Int("dropped", m.dropped))
	}

	graph := m.graph()
	if len(graph.Concepts) == 0 {
		graph.Concepts = fallbackConcepts(docs)
		e.logger.Warn("no concepts extracted, using document titles", zap.Int("concepts", len(graph.Concepts)))
	}

	texts := make([]string, len(graph.Concepts))
	for i, c := range graph.Concepts {
		texts[i] = c.Name + ": " + c.Description
	}
	vectors, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, models.NewStageError(models.StageExtraction, fmt.Errorf("embed concepts: %w", err))
	}
	if len(vectors) != len(graph.Concepts) {
		return nil, models.NewStageError(models.StageExtraction,
			fmt.Errorf("embed concepts: got %d vectors for %d concepts", len(vectors), len(graph.Concepts)))
	}
	graph.Embeddings = make(map[string][]float32, len(vectors))
	for i, c := range graph.Concepts {
		graph.Embeddings[c.ID] = vectors[i]
	}

	e.logger.Debug("knowledge graph built",
		zap.Int("documents", len(docs)), zap.Int("chunks", len(chunks)),
		zap.Int("concepts", len(graph.Concepts)), zap.Int("relationships", len(graph.Relationships)),
		zap.String("language", language))
	return &Result{Graph: graph, Language: language}, nil
}

// FindSimilarConcepts ranks graph concepts by cosine similarity to query.
// Concepts without an embedding score 0; ties keep graph order. k <= 0 returns nothing.
func (e *Extractor) FindSimilarConcepts(ctx context.Context, query string, graph *models.KnowledgeGraph, k int) ([]ScoredConcept, error) {
	if k <= 0 || graph == nil || len(graph.Concepts) == 0 {
		return []ScoredConcept{}, nil
	}
	qvec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	idx := vector.NewMemoryIndex()
	for _, c := range graph.Concepts {
		idx.Add(c.ID, graph.Embeddings[c.ID])
	}
	hits := idx.Search(qvec, k)
	out := make([]ScoredConcept, len(hits))
	for i, h := range hits {
		out[i] = ScoredConcept{Concept: graph.Concepts[h.Position], Score: h.Score}
	}
	return out, nil
}

// fallbackConcepts returns one concept per distinct document title.
func fallbackConcepts(docs []models.DocumentContent) []models.ConceptNode {
	seen := make(map[string]struct{})
	var out []models.ConceptNode
	for i, d := range docs {
		name := strings.TrimSpace(d.Title)
		if name == "" {
			name = "Document " + strconv.Itoa(i+1)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, models.ConceptNode{
			ID:              conceptID(len(out)),
			Name:            name,
			Description:     utils.Truncate(utils.CollapseWhitespace(d.Content), fallbackDescriptionChars),
			Difficulty:      models.DifficultyMedium,
			RelatedConcepts: []string{},
		})
	}
	return out
}

func conceptID(i int) string {
	return "concept-" + strconv.Itoa(i+1)
}

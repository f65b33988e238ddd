// Package planner turns a knowledge graph into a chaptered multi-voice script
// with predicted listener questions.
package planner

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/studycast/internal/llm"
	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/pkg/utils"
	"go.uber.org/zap"
)

// Settings are the planner's tuning knobs.
type Settings struct {
	WordsPerMinute     int
	MinutesPerChapter  int
	MinChapters        int
	MaxChapters        int
	MinQuestions       int
	MaxQuestions       int
	BreakpointInterval int
}

// Config is the per-run input.
type Config struct {
	TargetDuration int // minutes
	Language       string
	Style          string
	VoiceProfiles  []models.VoiceProfile
}

// Script is the planner's output. Segment durations are 0 until synthesis.
type Script struct {
	Title              string
	Description        string
	Chapters           []models.PodcastChapter
	Segments           []models.PodcastSegment
	PredictedQuestions []models.PredictedQuestion
}

// Retime recomputes timestamps and chapter bounds from segment durations.
func (s *Script) Retime() {
	Retime(s.Chapters, s.Segments)
}

// Planner writes scripts with a text generator.
type Planner struct {
	gen      llm.Generator
	settings Settings
	logger   *zap.Logger
}

// NewPlanner returns a Planner. Zero settings fall back to defaults.
func NewPlanner(gen llm.Generator, s Settings, logger *zap.Logger) *Planner {
	if s.WordsPerMinute <= 0 {
		s.WordsPerMinute = 150
	}
	if s.MinutesPerChapter <= 0 {
		s.MinutesPerChapter = 3
	}
	if s.MinChapters <= 0 {
		s.MinChapters = 3
	}
	if s.MaxChapters < s.MinChapters {
		s.MaxChapters = 8
		if s.MaxChapters < s.MinChapters {
			s.MaxChapters = s.MinChapters
		}
	}
	if s.MinQuestions <= 0 {
		s.MinQuestions = 5
	}
	if s.MaxQuestions < s.MinQuestions {
		s.MaxQuestions = 10
		if s.MaxQuestions < s.MinQuestions {
			s.MaxQuestions = s.MinQuestions
		}
	}
	if s.BreakpointInterval <= 0 {
		s.BreakpointInterval = 4
	}
	return &Planner{gen: gen, settings: s, logger: utils.LoggerOrNop(logger)}
}

type segmentDraft struct {
	Speaker  string   `json:"speaker"`
	Text     string   `json:"text"`
	Concepts []string `json:"concepts"`
}

type chapterDraft struct {
	Title    string         `json:"title"`
	Summary  string         `json:"summary"`
	Segments []segmentDraft `json:"segments"`
}

// GenerateScript plans chapters, writes the dialogue chapter by chapter and
// prepares predicted questions. Any generation or parse failure fails the
// whole stage; no partial script is returned.
func (p *Planner) GenerateScript(ctx context.Context, docs []models.DocumentContent, graph *models.KnowledgeGraph, cfg Config) (*Script, error) {
	if graph == nil || len(graph.Concepts) == 0 {
		return nil, models.InputErrorf("knowledge graph has no concepts")
	}
	if cfg.TargetDuration <= 0 {
		return nil, models.InputErrorf("target duration must be positive, got %d", cfg.TargetDuration)
	}
	roles := configuredRoles(cfg.VoiceProfiles)

	order := OrderConcepts(graph)
	nChapters := ChapterCount(cfg.TargetDuration, len(order), p.settings)
	groups := Partition(order, nChapters)
	wordsPerChapter := cfg.TargetDuration * p.settings.WordsPerMinute / len(groups)
	excerpt := documentContext(docs)

	p.logger.Debug("planning script",
		zap.Int("concepts", len(order)), zap.Int("chapters", len(groups)),
		zap.Int("words_per_chapter", wordsPerChapter))

	script := &Script{}
	previous := ""
	for ci, group := range groups {
		concepts := make([]models.ConceptNode, len(group))
		for i, idx := range group {
			concepts[i] = graph.Concepts[idx]
		}
		text, err := p.gen.Generate(ctx, llm.Request{
			System: chapterSystemPrompt,
			Prompt: chapterPrompt(chapterPromptInput{
				index: ci, total: len(groups), concepts: concepts, roles: roles,
				profiles: cfg.VoiceProfiles, words: wordsPerChapter, language: cfg.Language,
				style: cfg.Style, previous: previous, context: excerpt,
			}),
			JSON: true,
		})
		if err != nil {
			return nil, models.NewStageError(models.StagePlanning, fmt.Errorf("write chapter %d: %w", ci+1, err))
		}
		var draft chapterDraft
		if err := llm.DecodeJSON(text, &draft); err != nil {
			return nil, models.NewStageError(models.StagePlanning, fmt.Errorf("write chapter %d: %w", ci+1, err))
		}
		chapter, segments, err := p.buildChapter(ci, draft, concepts, roles, len(script.Segments))
		if err != nil {
			return nil, models.NewStageError(models.StagePlanning, err)
		}
		script.Chapters = append(script.Chapters, chapter)
		script.Segments = append(script.Segments, segments...)
		previous = chapter.Title
	}

	wpm := p.settings.WordsPerMinute
	layout(script.Chapters, script.Segments, func(s *models.PodcastSegment) float64 {
		return EstimateSeconds(s.Text, wpm)
	})

	if err := p.addQuestions(ctx, script, docs, graph, cfg.Language); err != nil {
		return nil, err
	}
	if err := script.Validate(graph); err != nil {
		return nil, models.NewStageError(models.StagePlanning, err)
	}
	return script, nil
}

// buildChapter normalizes a chapter draft: speakers, concept references,
// breakpoints and difficulty. offset is the number of segments before this chapter.
func (p *Planner) buildChapter(ci int, draft chapterDraft, concepts []models.ConceptNode, roles []models.Role, offset int) (models.PodcastChapter, []models.PodcastSegment, error) {
	chapterID := "chapter-" + strconv.Itoa(ci+1)
	lookup := conceptLookup(concepts)

	var drafts []segmentDraft
	for _, d := range draft.Segments {
		if strings.TrimSpace(d.Text) != "" {
			drafts = append(drafts, d)
		}
	}
	if len(drafts) == 0 {
		return models.PodcastChapter{}, nil, fmt.Errorf("chapter %d has no segments", ci+1)
	}

	speakers := assignSpeakers(drafts, roles)
	chapterIDs := make([]string, len(concepts))
	for i, c := range concepts {
		chapterIDs[i] = c.ID
	}
	chapterDifficulty := hardest(concepts)

	segments := make([]models.PodcastSegment, len(drafts))
	for i, d := range drafts {
		ids := resolveConcepts(d.Concepts, lookup)
		if len(ids) == 0 {
			ids = []string{chapterIDs[i%len(chapterIDs)]}
		}
		pos := offset + i + 1
		segments[i] = models.PodcastSegment{
			ID:                   "segment-" + strconv.Itoa(pos),
			ChapterID:            chapterID,
			Speaker:              speakers[i],
			Text:                 strings.TrimSpace(d.Text),
			Concepts:             ids,
			IsQuestionBreakpoint: pos%p.settings.BreakpointInterval == 0,
			Difficulty:           hardestOf(ids, concepts, chapterDifficulty),
		}
	}

	title := strings.TrimSpace(draft.Title)
	if title == "" {
		title = fmt.Sprintf("Chapter %d: %s", ci+1, concepts[0].Name)
	}
	summary := strings.TrimSpace(draft.Summary)
	if summary == "" {
		names := make([]string, len(concepts))
		for i, c := range concepts {
			names[i] = c.Name
		}
		summary = "Covers " + strings.Join(names, ", ") + "."
	}
	return models.PodcastChapter{
		ID:         chapterID,
		Title:      title,
		Concepts:   chapterIDs,
		Difficulty: chapterDifficulty,
		Summary:    summary,
	}, segments, nil
}

// configuredRoles returns the distinct valid roles of profiles in order, or
// every role when no profile is given.
func configuredRoles(profiles []models.VoiceProfile) []models.Role {
	var roles []models.Role
	seen := make(map[models.Role]bool)
	for _, p := range profiles {
		if p.Role.Valid() && !seen[p.Role] {
			seen[p.Role] = true
			roles = append(roles, p.Role)
		}
	}
	if len(roles) == 0 {
		return append([]models.Role(nil), models.Roles...)
	}
	return roles
}

// assignSpeakers keeps valid configured speakers and gives others the
// round-robin role for their position. When the chapter is long enough for
// every role but some role never speaks, the whole chapter is reassigned
// round-robin.
func assignSpeakers(drafts []segmentDraft, roles []models.Role) []models.Role {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	out := make([]models.Role, len(drafts))
	used := make(map[models.Role]bool)
	for i, d := range drafts {
		r, err := models.ParseRole(d.Speaker)
		if err != nil || !allowed[r] {
			r = roles[i%len(roles)]
		}
		out[i] = r
		used[r] = true
	}
	if len(drafts) >= len(roles) && len(used) < len(roles) {
		for i := range out {
			out[i] = roles[i%len(roles)]
		}
	}
	return out
}

// conceptLookup maps case-folded names and ids to concept ids.
func conceptLookup(concepts []models.ConceptNode) map[string]string {
	m := make(map[string]string, 2*len(concepts))
	for _, c := range concepts {
		m[strings.ToLower(strings.TrimSpace(c.Name))] = c.ID
		m[strings.ToLower(c.ID)] = c.ID
	}
	return m
}

func resolveConcepts(refs []string, lookup map[string]string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, ref := range refs {
		id, ok := lookup[strings.ToLower(strings.TrimSpace(ref))]
		if ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func hardest(concepts []models.ConceptNode) models.Difficulty {
	d := models.DifficultyEasy
	for _, c := range concepts {
		if c.Difficulty.Rank() > d.Rank() {
			d = c.Difficulty
		}
	}
	return d
}

func hardestOf(ids []string, concepts []models.ConceptNode, fallback models.Difficulty) models.Difficulty {
	var picked []models.ConceptNode
	for _, c := range concepts {
		for _, id := range ids {
			if c.ID == id {
				picked = append(picked, c)
			}
		}
	}
	if len(picked) == 0 {
		return fallback
	}
	return hardest(picked)
}

package planner

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/studycast/internal/llm"
	"github.com/hyperjump/studycast/internal/models"
	"go.uber.org/zap"
)

// maxRelatedSegments caps how many segments a predicted question points at.
const maxRelatedSegments = 3

type questionDraft struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Concepts []string `json:"concepts"`
}

type wrapUpDraft struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Questions   []questionDraft `json:"questions"`
}

// addQuestions fills the title, description and predicted questions of script.
func (p *Planner) addQuestions(ctx context.Context, script *Script, docs []models.DocumentContent, graph *models.KnowledgeGraph, language string) error {
	discussed := discussedConcepts(graph, script.Segments)
	titles := documentTitles(docs)

	text, err := p.gen.Generate(ctx, llm.Request{
		System: questionsSystemPrompt,
		Prompt: questionsPrompt(language, titles, script.Chapters, discussed, p.settings.MinQuestions, p.settings.MaxQuestions),
		JSON:   true,
	})
	if err != nil {
		return models.NewStageError(models.StagePlanning, fmt.Errorf("write questions: %w", err))
	}
	var draft wrapUpDraft
	if err := llm.DecodeJSON(text, &draft); err != nil {
		return models.NewStageError(models.StagePlanning, fmt.Errorf("write questions: %w", err))
	}

	script.Title = strings.TrimSpace(draft.Title)
	if script.Title == "" {
		script.Title = fallbackTitle(titles)
	}
	script.Description = strings.TrimSpace(draft.Description)
	if script.Description == "" {
		script.Description = fmt.Sprintf("A %d-chapter study conversation about %s.", len(script.Chapters), strings.Join(titles, ", "))
	}

	lookup := conceptLookup(discussed)
	var questions []models.PredictedQuestion
	asked := make(map[string]bool)
	// accept keeps drafts tied to at least one discussed concept, skipping
	// repeats, until MaxQuestions is reached.
	accept := func(drafts []questionDraft) {
		for _, q := range drafts {
			if len(questions) == p.settings.MaxQuestions {
				p.logger.Debug("truncating predicted questions", zap.Int("max", p.settings.MaxQuestions))
				return
			}
			question, answer := strings.TrimSpace(q.Question), strings.TrimSpace(q.Answer)
			key := strings.ToLower(question)
			if question == "" || answer == "" || asked[key] {
				continue
			}
			ids := resolveConcepts(q.Concepts, lookup)
			if len(ids) == 0 {
				p.logger.Debug("dropping predicted question without a discussed concept", zap.String("question", question))
				continue
			}
			asked[key] = true
			questions = append(questions, models.PredictedQuestion{
				ID:               "question-" + strconv.Itoa(len(questions)+1),
				Question:         question,
				Answer:           answer,
				RelevantConcepts: ids,
				RelatedSegments:  relatedSegments(ids, script.Segments),
			})
		}
	}
	accept(draft.Questions)

	if missing := p.settings.MinQuestions - len(questions); missing > 0 && len(discussed) > 0 {
		extra, err := p.moreQuestions(ctx, language, discussed, questions, missing)
		if err != nil {
			p.logger.Warn("follow-up question request failed", zap.Error(err))
		} else {
			accept(extra)
		}
	}
	if len(questions) < p.settings.MinQuestions {
		p.logger.Warn("fewer predicted questions than requested",
			zap.Int("got", len(questions)), zap.Int("min", p.settings.MinQuestions))
	}
	script.PredictedQuestions = questions
	return nil
}

// moreQuestions asks once for missing additional questions, listing the ones
// already kept so they are not repeated.
func (p *Planner) moreQuestions(ctx context.Context, language string, discussed []models.ConceptNode, have []models.PredictedQuestion, missing int) ([]questionDraft, error) {
	existing := make([]string, len(have))
	for i, q := range have {
		existing[i] = q.Question
	}
	text, err := p.gen.Generate(ctx, llm.Request{
		System: questionsSystemPrompt,
		Prompt: moreQuestionsPrompt(language, discussed, existing, missing),
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}
	var draft wrapUpDraft
	if err := llm.DecodeJSON(text, &draft); err != nil {
		return nil, err
	}
	return draft.Questions, nil
}

// discussedConcepts returns the graph concepts referenced by any segment, in graph order.
func discussedConcepts(graph *models.KnowledgeGraph, segments []models.PodcastSegment) []models.ConceptNode {
	used := make(map[string]bool)
	for _, s := range segments {
		for _, id := range s.Concepts {
			used[id] = true
		}
	}
	var out []models.ConceptNode
	for _, c := range graph.Concepts {
		if used[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

// relatedSegments returns up to maxRelatedSegments segments sharing a concept
// with ids, or the first segment when none does.
func relatedSegments(ids []string, segments []models.PodcastSegment) []string {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []string
	for _, s := range segments {
		if len(out) == maxRelatedSegments {
			break
		}
		for _, c := range s.Concepts {
			if want[c] {
				out = append(out, s.ID)
				break
			}
		}
	}
	if len(out) == 0 && len(segments) > 0 {
		out = []string{segments[0].ID}
	}
	return out
}

func documentTitles(docs []models.DocumentContent) []string {
	var titles []string
	seen := make(map[string]bool)
	for _, d := range docs {
		t := strings.TrimSpace(d.Title)
		if t != "" && !seen[t] {
			seen[t] = true
			titles = append(titles, t)
		}
	}
	return titles
}

func fallbackTitle(titles []string) string {
	switch len(titles) {
	case 0:
		return "Study Podcast"
	case 1:
		return "Study Podcast: " + titles[0]
	default:
		return fmt.Sprintf("Study Podcast: %s and %d more", titles[0], len(titles)-1)
	}
}

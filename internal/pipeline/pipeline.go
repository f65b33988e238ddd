// Package pipeline runs podcast generation end to end: extraction, planning,
// synthesis and persistence, plus the watchdog that reclaims abandoned runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/studycast/internal/knowledge"
	"github.com/hyperjump/studycast/internal/metrics"
	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/internal/planner"
	"github.com/hyperjump/studycast/internal/storage"
	"github.com/hyperjump/studycast/internal/tts"
	"github.com/hyperjump/studycast/internal/voice"
	"github.com/hyperjump/studycast/pkg/utils"
	"go.uber.org/zap"
)

// Progress checkpoints stored on the record while a run is in flight.
const (
	progressExtracted = 20
	progressPlanned   = 40
	progressVoiced    = 85
	progressAnswered  = 95
)

// Extractor builds the knowledge graph for a set of documents.
type Extractor interface {
	ExtractAndAnalyze(ctx context.Context, docs []models.DocumentContent, pinnedLanguage string) (*knowledge.Result, error)
}

// ScriptPlanner writes the chaptered dialogue and predicted questions.
type ScriptPlanner interface {
	GenerateScript(ctx context.Context, docs []models.DocumentContent, graph *models.KnowledgeGraph, cfg planner.Config) (*planner.Script, error)
}

// VoiceSynthesizer voices segments and prepared answers.
type VoiceSynthesizer interface {
	GenerateMultiVoiceAudio(ctx context.Context, keyPrefix string, segments []models.PodcastSegment, profiles []models.VoiceProfile, language string, onProgress voice.ProgressFunc) ([]models.PodcastSegment, voice.Report)
	GeneratePredictedQuestionsAudio(ctx context.Context, keyPrefix string, questions []models.PredictedQuestion, language string, host models.VoiceProfile, onProgress voice.ProgressFunc) ([]models.PredictedQuestion, voice.Report)
}

// TranscriptIndexer makes segment text keyword searchable.
type TranscriptIndexer interface {
	IndexPodcast(ctx context.Context, podcastID string, chapters []models.PodcastChapter, segments []models.PodcastSegment) error
}

// Defaults fill in request fields the caller left empty.
type Defaults struct {
	TargetDuration int // minutes
	Language       string
	VoiceProvider  models.VoiceProvider
}

// Generator runs generation requests. Each request runs its stages in order
// and writes the finished record exactly once.
type Generator struct {
	docs      storage.DocumentProvider
	store     storage.PodcastStore
	extractor Extractor
	planner   ScriptPlanner
	voices    VoiceSynthesizer
	providers map[models.VoiceProvider]bool

	index    TranscriptIndexer
	defaults Defaults
	metrics  *metrics.Metrics
	logger   *zap.Logger
	newID    func() string
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithMetrics records stage timings and outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// WithTranscriptIndex indexes the segments of every finished podcast.
func WithTranscriptIndex(idx TranscriptIndexer) Option {
	return func(g *Generator) { g.index = idx }
}

// WithDefaults sets request defaults.
func WithDefaults(d Defaults) Option {
	return func(g *Generator) {
		if d.TargetDuration > 0 {
			g.defaults.TargetDuration = d.TargetDuration
		}
		if d.Language != "" {
			g.defaults.Language = d.Language
		}
		if d.VoiceProvider != "" {
			g.defaults.VoiceProvider = d.VoiceProvider
		}
	}
}

// WithIDGenerator replaces the podcast id source.
func WithIDGenerator(fn func() string) Option {
	return func(g *Generator) { g.newID = fn }
}

// NewGenerator returns a Generator. providers lists the voice providers that
// have a configured speech backend.
func NewGenerator(docs storage.DocumentProvider, store storage.PodcastStore, extractor Extractor, scripts ScriptPlanner, voices VoiceSynthesizer, providers []models.VoiceProvider, opts ...Option) *Generator {
	g := &Generator{
		docs:      docs,
		store:     store,
		extractor: extractor,
		planner:   scripts,
		voices:    voices,
		providers: make(map[models.VoiceProvider]bool, len(providers)),
		defaults:  Defaults{TargetDuration: 10, VoiceProvider: models.VoiceProviderOpenAI},
		newID:     uuid.NewString,
	}
	for _, p := range providers {
		g.providers[p] = true
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = utils.LoggerOrNop(g.logger)
	return g
}

// Generate runs the whole pipeline for req and returns the ready record.
// Invalid requests and unknown documents fail before any record exists.
// Once the record exists, a stage failure marks it error and is returned.
func (g *Generator) Generate(ctx context.Context, req models.GenerateRequest) (*models.IntelligentPodcast, error) {
	req, err := g.normalize(req)
	if err != nil {
		return nil, err
	}
	docs, err := g.docs.GetDocuments(ctx, req.OwnerID, req.DocumentIDs)
	if err != nil {
		return nil, err
	}

	podcast := &models.IntelligentPodcast{
		ID:          g.newID(),
		OwnerID:     req.OwnerID,
		Title:       titleFromDocuments(docs),
		Language:    req.Language,
		DocumentIDs: req.DocumentIDs,
		Status:      models.StatusGenerating,
	}
	if err := g.store.CreatePodcast(ctx, podcast); err != nil {
		return nil, models.NewStageError(models.StagePersistence, err)
	}
	log := g.logger.With(zap.String("podcast", podcast.ID), zap.String("owner", req.OwnerID))
	log.Info("generation started",
		zap.Int("documents", len(docs)), zap.Int("target_minutes", req.TargetDuration),
		zap.String("voice_provider", string(req.VoiceProvider)))

	if err := g.run(ctx, podcast, docs, req, log); err != nil {
		g.fail(ctx, podcast.ID, err, log)
		return nil, err
	}
	g.metrics.GenerationFinished(string(models.StatusReady))
	log.Info("generation finished",
		zap.Int("chapters", len(podcast.Chapters)), zap.Int("segments", len(podcast.Segments)),
		zap.Int("questions", len(podcast.PredictedQuestions)), zap.Int("duration", podcast.Duration))
	return podcast, nil
}

func (g *Generator) normalize(req models.GenerateRequest) (models.GenerateRequest, error) {
	if req.OwnerID == "" {
		return req, models.ErrUnauthorized
	}
	if len(req.DocumentIDs) == 0 {
		return req, models.InputErrorf("document_ids is required")
	}
	if req.TargetDuration < 0 {
		return req, models.InputErrorf("target_duration must be positive, got %d", req.TargetDuration)
	}
	if req.TargetDuration == 0 {
		req.TargetDuration = g.defaults.TargetDuration
	}
	if req.Language == "" {
		req.Language = g.defaults.Language
	}
	if req.VoiceProvider == "" {
		req.VoiceProvider = g.defaults.VoiceProvider
	}
	if !req.VoiceProvider.Valid() {
		return req, models.InputErrorf("unknown voice provider %q", req.VoiceProvider)
	}
	if !g.providers[req.VoiceProvider] {
		return req, models.NewStageError(models.StageSynthesis,
			fmt.Errorf("voice provider %q is not configured", req.VoiceProvider))
	}
	return req, nil
}

// run executes the stages in order and fills podcast. It saves the record
// only when every stage succeeded.
func (g *Generator) run(ctx context.Context, podcast *models.IntelligentPodcast, docs []models.DocumentContent, req models.GenerateRequest, log *zap.Logger) error {
	start := time.Now()
	extracted, err := g.extractor.ExtractAndAnalyze(ctx, docs, req.Language)
	if err != nil {
		return asStage(models.StageExtraction, err)
	}
	g.metrics.ObserveStage(string(models.StageExtraction), start)
	podcast.Language = extracted.Language
	podcast.KnowledgeGraph = extracted.Graph
	g.checkpoint(ctx, podcast.ID, progressExtracted, log)

	start = time.Now()
	profiles := tts.DefaultProfiles(req.VoiceProvider)
	script, err := g.planner.GenerateScript(ctx, docs, &podcast.KnowledgeGraph, planner.Config{
		TargetDuration: req.TargetDuration,
		Language:       podcast.Language,
		Style:          req.Style,
		VoiceProfiles:  profiles,
	})
	if err != nil {
		return asStage(models.StagePlanning, err)
	}
	g.metrics.ObserveStage(string(models.StagePlanning), start)
	g.checkpoint(ctx, podcast.ID, progressPlanned, log)

	start = time.Now()
	segments, report := g.voices.GenerateMultiVoiceAudio(ctx, podcast.ID, script.Segments, profiles, podcast.Language,
		g.progress(ctx, podcast.ID, progressPlanned, progressVoiced, log))
	if report.Synthesized == 0 && len(segments) > 0 {
		log.Warn("no segment could be synthesized", zap.Int("segments", len(segments)))
	}
	script.Segments = segments
	if host, ok := tts.ProfileFor(profiles, models.RoleHost); ok {
		questions, qreport := g.voices.GeneratePredictedQuestionsAudio(ctx, podcast.ID, script.PredictedQuestions, podcast.Language, host,
			g.progress(ctx, podcast.ID, progressVoiced, progressAnswered, log))
		script.PredictedQuestions = questions
		report.Failed = append(report.Failed, qreport.Failed...)
	}
	if err := ctx.Err(); err != nil {
		return models.NewStageError(models.StageSynthesis, err)
	}
	g.metrics.ObserveStage(string(models.StageSynthesis), start)
	if len(report.Failed) > 0 {
		log.Warn("some items have no audio", zap.Int("failed", len(report.Failed)))
	}

	script.Retime()
	planner.AnnotateFirstMentions(&podcast.KnowledgeGraph, script.Segments)
	podcast.Title = script.Title
	podcast.Description = script.Description
	podcast.Chapters = script.Chapters
	podcast.Segments = script.Segments
	podcast.PredictedQuestions = script.PredictedQuestions
	podcast.Duration = podcast.TotalDuration()
	podcast.Status = models.StatusReady
	podcast.Progress = 100
	podcast.Error = ""

	start = time.Now()
	if err := g.store.SavePodcast(ctx, podcast); err != nil {
		return models.NewStageError(models.StagePersistence, err)
	}
	g.metrics.ObserveStage(string(models.StagePersistence), start)

	if g.index != nil {
		if err := g.index.IndexPodcast(ctx, podcast.ID, podcast.Chapters, podcast.Segments); err != nil {
			log.Warn("transcript indexing failed", zap.Error(err))
		}
	}
	return nil
}

// fail marks the record as error. It runs even when ctx is already cancelled.
func (g *Generator) fail(ctx context.Context, id string, cause error, log *zap.Logger) {
	g.metrics.GenerationFinished(string(models.StatusError))
	log.Error("generation failed", zap.Error(cause))
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := g.store.UpdateStatus(ctx, id, models.StatusError, 0, cause.Error()); err != nil {
		log.Error("failed to mark podcast as error", zap.Error(err))
	}
}

// checkpoint records progress. It also keeps the record fresh for the watchdog.
func (g *Generator) checkpoint(ctx context.Context, id string, progress int, log *zap.Logger) {
	if err := g.store.UpdateProgress(ctx, id, progress); err != nil {
		log.Debug("progress update failed", zap.Int("progress", progress), zap.Error(err))
	}
}

// progress maps per-item voice progress onto the from..to range.
func (g *Generator) progress(ctx context.Context, id string, from, to int, log *zap.Logger) voice.ProgressFunc {
	last := from
	return func(current, total int, step string) {
		if total <= 0 {
			return
		}
		pct := from + (to-from)*current/total
		if pct == last {
			return
		}
		last = pct
		log.Debug("synthesis progress", zap.Int("current", current), zap.Int("total", total), zap.String("step", step))
		g.checkpoint(ctx, id, pct, log)
	}
}

// asStage wraps err as a failure of stage unless it already names a stage.
func asStage(stage models.Stage, err error) error {
	var se *models.StageError
	if errors.As(err, &se) {
		return err
	}
	return models.NewStageError(stage, err)
}

func titleFromDocuments(docs []models.DocumentContent) string {
	for _, d := range docs {
		if d.Title != "" {
			return d.Title
		}
	}
	return "Study Podcast"
}

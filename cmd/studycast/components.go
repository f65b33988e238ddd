package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hyperjump/studycast/internal/assembler"
	"github.com/hyperjump/studycast/internal/blob"
	"github.com/hyperjump/studycast/internal/cache"
	"github.com/hyperjump/studycast/internal/config"
	"github.com/hyperjump/studycast/internal/embedding"
	"github.com/hyperjump/studycast/internal/extract"
	"github.com/hyperjump/studycast/internal/importer"
	"github.com/hyperjump/studycast/internal/keyword"
	"github.com/hyperjump/studycast/internal/knowledge"
	"github.com/hyperjump/studycast/internal/llm"
	"github.com/hyperjump/studycast/internal/metrics"
	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/internal/pipeline"
	"github.com/hyperjump/studycast/internal/planner"
	"github.com/hyperjump/studycast/internal/search"
	"github.com/hyperjump/studycast/internal/server"
	"github.com/hyperjump/studycast/internal/storage"
	"github.com/hyperjump/studycast/internal/tts"
	"github.com/hyperjump/studycast/internal/voice"
	"github.com/openai/openai-go"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Components holds initialized services.
type Components struct {
	Storage     storage.Storage
	Embedder    embedding.Embedder
	Transcripts *keyword.BleveIndex
	Assets      blob.Store
	Importer    *importer.Importer
	Generator   server.Generator
	Engine      *search.Engine
	Assembler   *assembler.Assembler
	Metrics     *metrics.Metrics
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Transcripts != nil {
		_ = c.Transcripts.Close()
	}
}

// unavailableGenerator answers generation requests when no text model is configured.
type unavailableGenerator struct {
	reason string
}

func (u unavailableGenerator) Generate(ctx context.Context, req models.GenerateRequest) (*models.IntelligentPodcast, error) {
	return nil, models.NewStageError(models.StageExtraction, errors.New(u.reason))
}

// providerClients lazily builds one client per API so text, embeddings and
// speech share connections.
type providerClients struct {
	cfg    *config.Config
	http   *http.Client
	openai *openai.Client
	gemini *genai.Client
}

func (p *providerClients) openAI() *openai.Client {
	if p.openai == nil && p.cfg.Secrets.OpenAIAPIKey != "" {
		p.openai = llm.NewOpenAIClient(p.cfg.Secrets.OpenAIAPIKey, p.cfg.LLM.BaseURL, p.http)
	}
	return p.openai
}

func (p *providerClients) geminiClient(ctx context.Context) (*genai.Client, error) {
	if p.gemini == nil && p.cfg.Secrets.GeminiAPIKey != "" {
		c, err := llm.NewGeminiClient(ctx, p.cfg.Secrets.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		p.gemini = c
	}
	return p.gemini, nil
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store, Metrics: metrics.New()}
	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	clients := &providerClients{cfg: cfg, http: &http.Client{Timeout: 5 * time.Minute}}

	c.Embedder, err = newEmbedder(ctx, cfg, clients, logger)
	if err != nil {
		return nil, err
	}

	c.Transcripts, err = keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize transcript index: %w", err)
	}

	c.Assets, err = newAssetStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c.Importer = importer.New(store, extract.NewExtractor(),
		importer.WithExtensions(cfg.Inbox.Extensions),
		importer.WithLanguage(cfg.Inbox.Language),
		importer.WithMetrics(c.Metrics),
		importer.WithLogger(logger),
	)

	gen, err := newTextGenerator(ctx, cfg, clients)
	if err != nil {
		return nil, err
	}
	g := cfg.Generation
	extractor := knowledge.NewExtractor(gen, c.Embedder, knowledge.Config{
		ChunkChars:      g.ChunkChars,
		MaxChunks:       g.MaxChunks,
		MaxConcepts:     g.MaxConcepts,
		DefaultLanguage: g.Language,
	}, logger)

	c.Engine = search.NewEngine(extractor, c.Transcripts, keyword.NewSuggester(c.Transcripts, 2), logger)
	c.Assembler = assembler.New(blob.NewHTTPFetcher(&http.Client{Timeout: 2 * time.Minute}, c.Assets), c.Metrics, logger)

	if gen == nil {
		reason := fmt.Sprintf("llm provider %q has no API key", cfg.LLM.Provider)
		logger.Warn("podcast generation disabled", zap.String("reason", reason))
		c.Generator = unavailableGenerator{reason: reason}
		ok = true
		return c, nil
	}

	router, err := newSpeechRouter(ctx, cfg, clients, c.Assets)
	if err != nil {
		return nil, err
	}
	providers := make([]models.VoiceProvider, 0, len(router))
	for p := range router {
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		logger.Warn("no speech provider configured; generation requests will be rejected")
	}

	scripts := planner.NewPlanner(gen, planner.Settings{
		WordsPerMinute:     g.WordsPerMinute,
		MinutesPerChapter:  g.MinutesPerChapter,
		MinChapters:        g.MinChapters,
		MaxChapters:        g.MaxChapters,
		MinQuestions:       g.MinQuestions,
		MaxQuestions:       g.MaxQuestions,
		BreakpointInterval: g.BreakpointInterval,
	}, logger)

	c.Generator = pipeline.NewGenerator(store, store, extractor, scripts,
		voice.NewSynthesizer(router, c.Metrics, logger), providers,
		pipeline.WithDefaults(pipeline.Defaults{
			TargetDuration: g.DefaultDuration,
			Language:       g.Language,
			VoiceProvider:  models.VoiceProvider(cfg.TTS.DefaultProvider),
		}),
		pipeline.WithTranscriptIndex(c.Transcripts),
		pipeline.WithMetrics(c.Metrics),
		pipeline.WithLogger(logger),
	)
	ok = true
	return c, nil
}

// newTextGenerator returns nil without error when the provider has no key.
func newTextGenerator(ctx context.Context, cfg *config.Config, clients *providerClients) (llm.Generator, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		client, err := clients.geminiClient(ctx)
		if err != nil || client == nil {
			return nil, err
		}
		return llm.NewGeminiGenerator(client, cfg.LLM.Model, cfg.LLM.Temperature), nil
	case "openai":
		client := clients.openAI()
		if client == nil {
			return nil, nil
		}
		return llm.NewOpenAIGenerator(client, cfg.LLM.Model, cfg.LLM.Temperature), nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
}

// newEmbedder falls back to the local hash embedder when the provider has no key.
func newEmbedder(ctx context.Context, cfg *config.Config, clients *providerClients, logger *zap.Logger) (embedding.Embedder, error) {
	e := cfg.Embedding
	var inner embedding.Embedder
	switch e.Provider {
	case "openai":
		if key := cfg.Secrets.OpenAIAPIKey; key != "" {
			inner = embedding.NewOpenAIEmbedder(key, cfg.LLM.BaseURL, e.Model, e.Dimensions, clients.http)
		}
	case "gemini":
		client, err := clients.geminiClient(ctx)
		if err != nil {
			return nil, err
		}
		if client != nil {
			inner = embedding.NewGeminiEmbedder(client, e.Model, e.Dimensions)
		}
	case "hash":
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", e.Provider)
	}
	if inner == nil {
		if e.Provider != "hash" {
			logger.Warn("embedding provider has no API key, using hash embeddings", zap.String("provider", e.Provider))
		}
		inner = embedding.NewHashEmbedder(e.Dimensions)
	}
	return embedding.NewCachedEmbedder(inner, cache.NewLRU[string, []float32](e.CacheSize, e.CacheTTL)), nil
}

func newAssetStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	s3cfg := cfg.Storage.S3
	if s3cfg.Bucket == "" {
		return blob.NewLocalStore(cfg.Storage.AssetsDir, publicBaseURL(cfg)+"/assets")
	}
	opts := blob.S3Options{
		Bucket:    s3cfg.Bucket,
		Prefix:    s3cfg.Prefix,
		Region:    s3cfg.Region,
		Endpoint:  s3cfg.Endpoint,
		PublicURL: s3cfg.PublicURL,
		AccessKey: cfg.Secrets.S3AccessKey,
		SecretKey: cfg.Secrets.S3SecretKey,
	}
	client, err := blob.NewS3Client(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize s3 asset store: %w", err)
	}
	return blob.NewS3Store(client, opts), nil
}

func newSpeechRouter(ctx context.Context, cfg *config.Config, clients *providerClients, assets blob.Store) (tts.Router, error) {
	router := tts.Router{}
	if client := clients.openAI(); client != nil {
		router[models.VoiceProviderOpenAI] = tts.NewSynthesizer(tts.NewOpenAISpeaker(client, cfg.TTS.OpenAIModel), assets)
	}
	client, err := clients.geminiClient(ctx)
	if err != nil {
		return nil, err
	}
	if client != nil {
		router[models.VoiceProviderGemini] = tts.NewSynthesizer(tts.NewGeminiSpeaker(client, cfg.TTS.GeminiModel), assets)
	}
	return router, nil
}

func publicBaseURL(cfg *config.Config) string {
	if cfg.Server.PublicBaseURL != "" {
		return cfg.Server.PublicBaseURL
	}
	return fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
}

package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Server.GenerateTimeout == 0 {
		cfg.Server.GenerateTimeout = 15 * time.Minute
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/studycast/data/db/studycast.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/studycast/data/indices/transcripts"
	}
	if cfg.Storage.AssetsDir == "" {
		cfg.Storage.AssetsDir = "/usr/local/var/studycast/data/assets"
	}
	if cfg.Storage.S3.Bucket != "" && cfg.Storage.S3.Region == "" {
		cfg.Storage.S3.Region = "us-east-1"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Model == "" {
		switch cfg.LLM.Provider {
		case "gemini":
			cfg.LLM.Model = "gemini-2.5-flash"
		default:
			cfg.LLM.Model = "gpt-4o-mini"
		}
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = cfg.LLM.Provider
	}
	if cfg.Embedding.Model == "" {
		switch cfg.Embedding.Provider {
		case "gemini":
			cfg.Embedding.Model = "text-embedding-004"
		case "hash":
		default:
			cfg.Embedding.Model = "text-embedding-3-small"
		}
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 768
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.CacheTTL == 0 {
		cfg.Embedding.CacheTTL = time.Hour
	}
	if cfg.TTS.DefaultProvider == "" {
		cfg.TTS.DefaultProvider = "openai"
	}
	if cfg.TTS.OpenAIModel == "" {
		cfg.TTS.OpenAIModel = "gpt-4o-mini-tts"
	}
	if cfg.TTS.GeminiModel == "" {
		cfg.TTS.GeminiModel = "gemini-2.5-flash-preview-tts"
	}
	applyGenerationDefaults(&cfg.Generation)
	if cfg.Inbox.Extensions == nil {
		cfg.Inbox.Extensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".odt", ".rtf", ".xlsx", ".pptx", ".odp", ".ods"}
	}
	if cfg.Inbox.Owner == "" {
		cfg.Inbox.Owner = "local"
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Inbox.Directories) > 0 && cfg.Inbox.Recursive == nil {
		t := true
		cfg.Inbox.Recursive = &t
	}
}

func applyGenerationDefaults(g *GenerationConfig) {
	if g.WordsPerMinute == 0 {
		g.WordsPerMinute = 150
	}
	if g.MinutesPerChapter == 0 {
		g.MinutesPerChapter = 3
	}
	if g.MinChapters == 0 {
		g.MinChapters = 3
	}
	if g.MaxChapters == 0 {
		g.MaxChapters = 8
	}
	if g.MaxChapters < g.MinChapters {
		g.MaxChapters = g.MinChapters
	}
	if g.MinQuestions == 0 {
		g.MinQuestions = 5
	}
	if g.MaxQuestions == 0 {
		g.MaxQuestions = 10
	}
	if g.MaxQuestions < g.MinQuestions {
		g.MaxQuestions = g.MinQuestions
	}
	if g.MaxConcepts == 0 {
		g.MaxConcepts = 24
	}
	if g.ChunkChars == 0 {
		g.ChunkChars = 12000
	}
	if g.MaxChunks == 0 {
		g.MaxChunks = 16
	}
	if g.BreakpointInterval == 0 {
		g.BreakpointInterval = 4
	}
	if g.DefaultDuration == 0 {
		g.DefaultDuration = 10
	}
	if g.StaleAfter == 0 {
		g.StaleAfter = 30 * time.Minute
	}
	if g.WatchdogSchedule == "" {
		g.WatchdogSchedule = "@every 1m"
	}
}

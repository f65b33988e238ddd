// Package config provides configuration loading and structs for the studycast server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	LLM        LLMConfig        `yaml:"llm"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	TTS        TTSConfig        `yaml:"tts"`
	Generation GenerationConfig `yaml:"generation"`
	Inbox      InboxConfig      `yaml:"inbox"`

	// Secrets are read from the environment, never from the YAML file.
	Secrets Secrets `yaml:"-"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// PublicBaseURL prefixes local asset URLs handed to clients and the assembler.
	PublicBaseURL   string        `yaml:"public_base_url"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	GenerateTimeout time.Duration `yaml:"generate_timeout"`
}

// StorageConfig holds paths for the database, indices and audio assets.
type StorageConfig struct {
	DatabasePath   string   `yaml:"database_path"`
	BleveIndexPath string   `yaml:"bleve_index_path"`
	AssetsDir      string   `yaml:"assets_dir"`
	S3             S3Config `yaml:"s3"`
}

// S3Config selects an S3-compatible bucket for audio assets. Empty Bucket means local disk.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PublicURL string `yaml:"public_url"`
}

// LLMConfig selects the text-generation backend.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
}

// EmbeddingConfig selects the embedding backend.
type EmbeddingConfig struct {
	Provider   string        `yaml:"provider"`
	Model      string        `yaml:"model"`
	Dimensions int           `yaml:"dimensions"`
	CacheSize  int           `yaml:"cache_size"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
}

// TTSConfig holds speech synthesis settings.
type TTSConfig struct {
	DefaultProvider string `yaml:"default_provider"`
	OpenAIModel     string `yaml:"openai_model"`
	GeminiModel     string `yaml:"gemini_model"`
}

// GenerationConfig holds the knobs of the extraction and planning stages.
type GenerationConfig struct {
	Language           string        `yaml:"language"`
	WordsPerMinute     int           `yaml:"words_per_minute"`
	MinutesPerChapter  int           `yaml:"minutes_per_chapter"`
	MinChapters        int           `yaml:"min_chapters"`
	MaxChapters        int           `yaml:"max_chapters"`
	MinQuestions       int           `yaml:"min_questions"`
	MaxQuestions       int           `yaml:"max_questions"`
	MaxConcepts        int           `yaml:"max_concepts"`
	ChunkChars         int           `yaml:"chunk_chars"`
	MaxChunks          int           `yaml:"max_chunks"`
	BreakpointInterval int           `yaml:"breakpoint_interval"`
	DefaultDuration    int           `yaml:"default_duration"`
	StaleAfter         time.Duration `yaml:"stale_after"`
	WatchdogSchedule   string        `yaml:"watchdog_schedule"`
}

// InboxConfig holds the document inbox watch settings.
type InboxConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
	Owner       string   `yaml:"owner"`
	Language    string   `yaml:"language"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *InboxConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, applies defaults,
// and reads secrets from the environment.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Storage.AssetsDir = expandPath(cfg.Storage.AssetsDir, configDir)
	for i := range cfg.Inbox.Directories {
		cfg.Inbox.Directories[i] = expandPath(cfg.Inbox.Directories[i], configDir)
	}

	secrets, err := LoadSecrets()
	if err != nil {
		return nil, err
	}
	cfg.Secrets = *secrets

	return &cfg, nil
}

// Save writes the config to path. Secrets are never written.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

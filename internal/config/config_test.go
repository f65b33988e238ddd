package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
  generate_timeout: 20m
storage:
  database_path: "test.db"
llm:
  provider: gemini
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.GenerateTimeout != 20*time.Minute {
		t.Errorf("generate_timeout: got %s", cfg.Server.GenerateTimeout)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.LLM.Model != "gemini-2.5-flash" {
		t.Errorf("gemini default model: got %s", cfg.LLM.Model)
	}
	if cfg.Embedding.Provider != "gemini" {
		t.Errorf("embedding provider should follow llm provider, got %s", cfg.Embedding.Provider)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_secretsFromEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("STUDYCAST_S3_ACCESS_KEY", "AKIA")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
	if cfg.Secrets.OpenAIAPIKey != "sk-test" {
		t.Errorf("OpenAIAPIKey = %q", cfg.Secrets.OpenAIAPIKey)
	}
	if cfg.Secrets.APIKey("openai") != "sk-test" || cfg.Secrets.APIKey("hash") != "" {
		t.Error("APIKey lookup by provider is wrong")
	}
	if cfg.Secrets.S3AccessKey != "AKIA" {
		t.Errorf("S3AccessKey = %q", cfg.Secrets.S3AccessKey)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/db/studycast.db"
  assets_dir: "./data/assets"
inbox:
  directories: ["./inbox"]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "studycast.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	if cfg.Storage.AssetsDir != filepath.Join(dir, "data", "assets") {
		t.Errorf("assets_dir = %s", cfg.Storage.AssetsDir)
	}
	if len(cfg.Inbox.Directories) != 1 || cfg.Inbox.Directories[0] != filepath.Join(dir, "inbox") {
		t.Errorf("inbox directories = %v", cfg.Inbox.Directories)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("default server: got %+v", cfg.Server)
	}
	g := cfg.Generation
	if g.WordsPerMinute != 150 {
		t.Errorf("words_per_minute: got %d", g.WordsPerMinute)
	}
	if g.MinChapters != 3 || g.MaxChapters != 8 {
		t.Errorf("chapter bounds: got %d..%d", g.MinChapters, g.MaxChapters)
	}
	if g.MinQuestions != 5 || g.MaxQuestions != 10 {
		t.Errorf("question bounds: got %d..%d", g.MinQuestions, g.MaxQuestions)
	}
	if g.StaleAfter != 30*time.Minute || g.WatchdogSchedule != "@every 1m" {
		t.Errorf("watchdog defaults: got %s %q", g.StaleAfter, g.WatchdogSchedule)
	}
	if cfg.LLM.Provider != "openai" || cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("provider defaults: llm=%s embedding=%s", cfg.LLM.Provider, cfg.Embedding.Model)
	}
	if len(cfg.Inbox.Extensions) == 0 || cfg.Inbox.Extensions[0] != ".txt" {
		t.Errorf("inbox extensions: got %v", cfg.Inbox.Extensions)
	}
}

func TestApplyDefaults_boundsNeverInvert(t *testing.T) {
	cfg := &Config{Generation: GenerationConfig{MinChapters: 10, MinQuestions: 12}}
	ApplyDefaults(cfg)
	if cfg.Generation.MaxChapters < cfg.Generation.MinChapters {
		t.Errorf("max chapters %d < min %d", cfg.Generation.MaxChapters, cfg.Generation.MinChapters)
	}
	if cfg.Generation.MaxQuestions < cfg.Generation.MinQuestions {
		t.Errorf("max questions %d < min %d", cfg.Generation.MaxQuestions, cfg.Generation.MinQuestions)
	}
}

func TestInboxConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		w := &InboxConfig{}
		if !w.RecursiveOrDefault() {
			t.Error("RecursiveOrDefault() = false, want true")
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		w := &InboxConfig{Recursive: &f}
		if w.RecursiveOrDefault() {
			t.Error("RecursiveOrDefault() = true, want false")
		}
	})
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
		Secrets: Secrets{OpenAIAPIKey: "never-written"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) == "" || strings.Contains(string(raw), "never-written") {
		t.Error("secrets must not be persisted")
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
}

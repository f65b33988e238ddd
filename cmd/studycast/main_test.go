package main

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hyperjump/studycast/internal/config"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"pod-1", "light reactions", "--output", "json"},
			expected: []string{"--output", "json", "pod-1", "light reactions"},
		},
		{
			name:     "flags first unchanged",
			args:     []string{"--transcript", "pod-1", "calvin"},
			expected: []string{"--transcript", "pod-1", "calvin"},
		},
		{
			name:     "no flags unchanged",
			args:     []string{"doc-1", "doc-2"},
			expected: []string{"doc-1", "doc-2"},
		},
		{
			name:     "empty",
			args:     []string{},
			expected: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder(%q) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"light", "reactions"}, "light reactions"},
		{[]string{"light reactions"}, "light reactions"},
		{[]string{"  chlorophyll  "}, "chlorophyll"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := buildSearchQuery(tt.args); got != tt.want {
			t.Errorf("buildSearchQuery(%q) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestConfigPathFromArgs(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--config", "/tmp/c.yaml", "doc-1"}, "/tmp/c.yaml"},
		{[]string{"-config", "/tmp/c.yaml"}, "/tmp/c.yaml"},
		{[]string{"--config=/tmp/eq.yaml"}, "/tmp/eq.yaml"},
		{[]string{"doc-1", "--config"}, defaultConfigPath},
		{[]string{"doc-1"}, defaultConfigPath},
	}
	for _, tt := range tests {
		if got := configPathFromArgs(tt.args, defaultConfigPath); got != tt.want {
			t.Errorf("configPathFromArgs(%q) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestSplitIDs(t *testing.T) {
	got := splitIDs(" doc-1, ,doc-2,doc-1,")
	want := []string{"doc-1", "doc-2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitIDs = %q, want %q", got, want)
	}
	if ids := splitIDs(","); len(ids) != 0 {
		t.Errorf("splitIDs(\",\") = %q, want empty", ids)
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(rel string) {
		t.Helper()
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("text"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	write("a.txt")
	write("b.MD")
	write("skip.bin")
	write(".hidden/c.txt")
	write("sub/d.txt")

	exts := []string{".txt", ".md"}
	got, err := collectFiles(dir, exts, true)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.MD"), filepath.Join(dir, "sub", "d.txt")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("recursive = %q, want %q", got, want)
	}

	got, err = collectFiles(dir, exts, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("non-recursive = %q, want top level only", got)
	}

	single := filepath.Join(dir, "skip.bin")
	got, err = collectFiles(single, exts, true)
	if err != nil || len(got) != 1 || got[0] != single {
		t.Errorf("single file = %q, %v; want it returned as given", got, err)
	}

	if _, err := collectFiles(filepath.Join(dir, "missing"), exts, true); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing path err = %v, want ErrNotExist", err)
	}
}

func TestPublicBaseURL(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{Host: "localhost", Port: 8080}}
	if got := publicBaseURL(cfg); got != "http://localhost:8080" {
		t.Errorf("publicBaseURL = %q", got)
	}
	cfg.Server.PublicBaseURL = "https://cast.example.com"
	if got := publicBaseURL(cfg); got != "https://cast.example.com" {
		t.Errorf("publicBaseURL = %q", got)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}

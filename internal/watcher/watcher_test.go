package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/studycast/internal/models"
)

// recordingImporter records calls and accepts .txt files.
type recordingImporter struct {
	mu       sync.Mutex
	imported map[string]int
	removed  []string
	owners   map[string]bool
}

func newRecorder() *recordingImporter {
	return &recordingImporter{imported: map[string]int{}, owners: map[string]bool{}}
}

func (r *recordingImporter) ImportFile(ctx context.Context, owner, path string) (*models.DocumentContent, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imported[path]++
	r.owners[owner] = true
	return &models.DocumentContent{ID: path, Title: filepath.Base(path)}, true, nil
}

func (r *recordingImporter) Remove(ctx context.Context, owner, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, path)
	return nil
}

func (r *recordingImporter) Allowed(path string) bool {
	return strings.HasSuffix(path, ".txt")
}

func (r *recordingImporter) count(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.imported[path]
}

func (r *recordingImporter) wasRemoved(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.removed {
		if p == path {
			return true
		}
	}
	return false
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestWatcher_importsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "existing.txt")
	if err := os.WriteFile(existing, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignored.bin"), []byte{1}, 0644); err != nil {
		t.Fatal(err)
	}

	rec := newRecorder()
	w := New(rec, "alice", []string{dir}, true, WithDebounce(20*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	waitFor(t, "existing file import", func() bool { return rec.count(existing) == 1 })
	if rec.count(filepath.Join(dir, "ignored.bin")) != 0 {
		t.Error("disallowed file was imported")
	}
	rec.mu.Lock()
	if !rec.owners["alice"] || len(rec.owners) != 1 {
		t.Errorf("owners = %v", rec.owners)
	}
	rec.mu.Unlock()
}

func TestWatcher_debouncesWritesAndRemoves(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	w := New(rec, "alice", []string{dir}, true, WithDebounce(150*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "notes.txt")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte(strings.Repeat("x", i+1)), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	waitFor(t, "debounced import", func() bool { return rec.count(path) >= 1 })
	time.Sleep(300 * time.Millisecond)
	if n := rec.count(path); n != 1 {
		t.Errorf("imports = %d, want 1 after debounce", n)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "remove", func() bool { return rec.wasRemoved(path) })
}

func TestWatcher_newSubdirectory(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	w := New(rec, "alice", []string{dir}, true, WithDebounce(20*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	sub := filepath.Join(dir, "chapter1")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	path := filepath.Join(sub, "a.txt")
	if err := os.WriteFile(path, []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "nested import", func() bool { return rec.count(path) >= 1 })
}

func TestWatcher_createsMissingRootAndStopIsIdempotent(t *testing.T) {
	root := filepath.Join(t.TempDir(), "inbox", "new")
	w := New(newRecorder(), "alice", []string{root}, false)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root not created: %v", err)
	}
	if dirs := w.Directories(); len(dirs) != 1 || dirs[0] != root {
		t.Errorf("Directories() = %v", dirs)
	}
	w.Stop()
	w.Stop()
}

package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/studycast/internal/fileid"
	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/internal/storage"
)

func newStore(t *testing.T) storage.Storage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestAllowed(t *testing.T) {
	im := New(newStore(t), nil, WithExtensions([]string{".txt", "md"}))
	tests := []struct {
		path string
		want bool
	}{
		{"notes.txt", true},
		{"NOTES.TXT", true},
		{"readme.md", true},
		{"main.go", false},
		{"Makefile", false},
	}
	for _, tt := range tests {
		if got := im.Allowed(tt.path); got != tt.want {
			t.Errorf("Allowed(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
	if !New(newStore(t), nil).Allowed("anything.bin") {
		t.Error("no extensions configured should allow everything")
	}
}

func TestImportDocument(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	im := New(store, nil)

	doc, err := im.ImportDocument(ctx, "alice", &models.DocumentInput{Title: "  Cell\nBiology ", Content: " The cell is the unit of life. ", Language: "EN"})
	if err != nil {
		t.Fatal(err)
	}
	if doc.ID == "" || doc.Title != "Cell Biology" || doc.Language != "en" || doc.PageCount != 1 {
		t.Errorf("doc = %+v", doc)
	}
	got, err := store.GetDocument(ctx, "alice", doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "The cell is the unit of life." {
		t.Errorf("content = %q", got.Content)
	}

	if _, err := im.ImportDocument(ctx, "alice", &models.DocumentInput{Content: "   "}); !errors.Is(err, models.ErrInput) {
		t.Errorf("empty content: %v", err)
	}
	untitled, err := im.ImportDocument(ctx, "alice", &models.DocumentInput{ID: "fixed", Content: "x"})
	if err != nil || untitled.ID != "fixed" || untitled.Title != "Untitled" {
		t.Errorf("untitled = %+v, %v", untitled, err)
	}
}

func TestImportFile_skipsUnchangedAndReimportsModified(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "cell_biology-notes.txt")
	writeFile(t, path, "Mitochondria produce energy.")
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatal(err)
	}

	store := newStore(t)
	im := New(store, nil, WithExtensions([]string{".txt"}), WithLanguage("en"))

	doc, wrote, err := im.ImportFile(ctx, "alice", path)
	if err != nil || !wrote {
		t.Fatalf("first import: wrote=%v err=%v", wrote, err)
	}
	if doc.ID != fileid.ForPath("alice", path) || doc.Title != "cell biology notes" || doc.Language != "en" {
		t.Errorf("doc = %+v", doc)
	}

	if _, wrote, err := im.ImportFile(ctx, "alice", path); err != nil || wrote {
		t.Errorf("unchanged file should be skipped: wrote=%v err=%v", wrote, err)
	}

	writeFile(t, path, "Chloroplasts capture light.")
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}
	doc, wrote, err = im.ImportFile(ctx, "alice", path)
	if err != nil || !wrote || doc.Content != "Chloroplasts capture light." {
		t.Errorf("modified file should be re-imported: %+v wrote=%v err=%v", doc, wrote, err)
	}

	if _, _, err := im.ImportFile(ctx, "alice", filepath.Join(dir, "main.go")); !errors.Is(err, models.ErrInput) {
		t.Errorf("disallowed extension: %v", err)
	}
}

func TestImportDirectoryAndRemove(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")
	writeFile(t, filepath.Join(dir, "nested", "b.md"), "beta")
	writeFile(t, filepath.Join(dir, ".hidden", "c.txt"), "gamma")
	writeFile(t, filepath.Join(dir, "skip.go"), "package main")
	writeFile(t, filepath.Join(dir, "empty.txt"), "   ")

	store := newStore(t)
	im := New(store, nil, WithExtensions([]string{".txt", ".md"}))

	n, err := im.ImportDirectory(ctx, "bob", dir, false)
	if err != nil || n != 1 {
		t.Fatalf("non-recursive import: n=%d err=%v", n, err)
	}
	n, err = im.ImportDirectory(ctx, "bob", dir, true)
	if err != nil || n != 1 {
		t.Fatalf("recursive import should add only the nested file: n=%d err=%v", n, err)
	}
	if count, _ := store.CountDocuments(ctx); count != 2 {
		t.Errorf("documents = %d, want 2", count)
	}

	if err := im.Remove(ctx, "bob", filepath.Join(dir, "a.txt")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetDocument(ctx, "bob", fileid.ForPath("bob", filepath.Join(dir, "a.txt"))); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("removed document still present: %v", err)
	}
	if err := im.Remove(ctx, "bob", filepath.Join(dir, "never.txt")); err != nil {
		t.Errorf("removing an unknown file: %v", err)
	}

	if _, err := im.ImportDirectory(ctx, "bob", filepath.Join(dir, "a.md"), true); err == nil {
		t.Error("missing directory should fail")
	}
}

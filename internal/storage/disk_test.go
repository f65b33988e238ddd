package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsage(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "studycast.db")
	if err := os.WriteFile(db, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	assets := filepath.Join(dir, "assets", "p1")
	if err := os.MkdirAll(assets, 0755); err != nil {
		t.Fatal(err)
	}
	for name, body := range map[string]string{"a.wav": "ab", "b.wav": "c"} {
		if err := os.WriteFile(filepath.Join(assets, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}

	usage, total, err := DiskUsage(map[string]string{
		"database": db,
		"assets":   filepath.Join(dir, "assets"),
		"index":    filepath.Join(dir, "missing"),
		"unset":    "",
	})
	if err != nil {
		t.Fatal(err)
	}
	if usage["database"] != 5 || usage["assets"] != 3 || usage["index"] != 0 || usage["unset"] != 0 {
		t.Errorf("usage = %v", usage)
	}
	if total != 8 {
		t.Errorf("total = %d, want 8", total)
	}
}

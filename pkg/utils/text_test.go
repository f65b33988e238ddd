package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if got := Truncate("héllo wörld", 7); got != "héllo w..." {
		t.Errorf("multibyte truncate: got %q", got)
	}
}

func TestSnippet(t *testing.T) {
	if got := Snippet("short", 200); got != "short..." {
		t.Errorf("Snippet short: got %q", got)
	}
	long := make([]rune, 250)
	for i := range long {
		long[i] = 'ä'
	}
	got := []rune(Snippet(string(long), 200))
	if len(got) != 203 {
		t.Errorf("Snippet long: got %d runes, want 203", len(got))
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := CollapseWhitespace("  a \t\n b   c "); got != "a b c" {
		t.Errorf("got %q", got)
	}
}

func TestWordCount(t *testing.T) {
	if WordCount("one two  three\nfour") != 4 {
		t.Error("expected 4 words")
	}
	if WordCount("   ") != 0 {
		t.Error("expected 0 words")
	}
}

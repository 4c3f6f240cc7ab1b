package query

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.go")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSnippet(t *testing.T) {
	path := writeTemp(t, "package main\n\n  func Handler() {}\nhandler again\n")

	snippet, line := Snippet(path, "handler")
	if line != 3 {
		t.Errorf("line = %d, want 3 (first match wins)", line)
	}
	if snippet != "func Handler() {}" {
		t.Errorf("snippet = %q, want the trimmed line", snippet)
	}
}

func TestSnippetCaseInsensitive(t *testing.T) {
	path := writeTemp(t, "CONNECT refused\n")
	snippet, line := Snippet(path, "connect")
	if line != 1 || snippet != "CONNECT refused" {
		t.Errorf("Snippet = %q line %d, want line 1 verbatim", snippet, line)
	}
}

func TestSnippetTruncatesLongLines(t *testing.T) {
	long := "needle " + strings.Repeat("x", 400)
	path := writeTemp(t, long+"\n")

	snippet, line := Snippet(path, "needle")
	if line != 1 {
		t.Fatalf("line = %d, want 1", line)
	}
	if !strings.HasSuffix(snippet, "...") {
		t.Errorf("snippet = %q, want ... suffix", snippet[:20])
	}
	if len(snippet) != snippetMaxLen+3 {
		t.Errorf("snippet length = %d, want %d", len(snippet), snippetMaxLen+3)
	}
}

func TestSnippetTermAbsent(t *testing.T) {
	path := writeTemp(t, "nothing here\n")
	snippet, line := Snippet(path, "needle")
	if snippet != "" || line != 0 {
		t.Errorf("Snippet = %q line %d, want empty", snippet, line)
	}
}

func TestSnippetMissingFile(t *testing.T) {
	snippet, line := Snippet(filepath.Join(t.TempDir(), "gone.go"), "needle")
	if snippet != "" || line != 0 {
		t.Errorf("Snippet = %q line %d, want empty for a missing file", snippet, line)
	}
}

func TestSnippetEmptyTerm(t *testing.T) {
	path := writeTemp(t, "anything\n")
	snippet, line := Snippet(path, "")
	if snippet != "" || line != 0 {
		t.Errorf("Snippet = %q line %d, want empty for an empty term", snippet, line)
	}
}

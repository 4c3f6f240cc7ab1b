package cli

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt(".devscope", false)
	if got != "devscope:.devscope> " {
		t.Errorf("BuildPrompt = %q", got)
	}
}

func TestBuildPromptColor(t *testing.T) {
	got := BuildPrompt(".devscope", true)
	if !strings.HasPrefix(got, "\033[32m") || !strings.Contains(got, "\033[0m") {
		t.Errorf("colored prompt missing ANSI codes: %q", got)
	}
	if !strings.Contains(got, "devscope:.devscope>") {
		t.Errorf("colored prompt missing text: %q", got)
	}
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		path   string
		maxLen int
		want   string
	}{
		{"/short", 30, "/short"},
		{"/home/dev/projects/backend/indexes", 30, "/.../backend/indexes"},
		{"/a/very/deep/tree/with/one/exceedinglylongcomponentname", 30, "/.../exceedinglylongcomponentname"},
		{"rootonly", 5, "rootonly"},
	}

	for _, tt := range tests {
		if got := truncatePath(tt.path, tt.maxLen); got != tt.want {
			t.Errorf("truncatePath(%q, %d) = %q, want %q", tt.path, tt.maxLen, got, tt.want)
		}
	}
}

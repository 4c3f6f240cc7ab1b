package index

import (
	"strings"
	"testing"

	"devscope/internal/models"
)

func findToken(tokens []RawToken, term string) (RawToken, bool) {
	for _, tok := range tokens {
		if tok.Term == term {
			return tok, true
		}
	}
	return RawToken{}, false
}

func TestTokenizeCode(t *testing.T) {
	src := "package main\n\nfunc ReadFile(path string) error {\n\treturn nil\n}\n"
	tokens, minT, maxT := Tokenize(strings.NewReader(src), models.DocTypeCode)

	if minT != 0 || maxT != 0 {
		t.Errorf("code timestamps = %d/%d, want 0/0", minT, maxT)
	}
	tok, ok := findToken(tokens, "readfile")
	if !ok {
		t.Fatalf("no token for readfile in %v", tokens)
	}
	if tok.Meta&models.MetaInFunctionName == 0 {
		t.Errorf("readfile meta = %08b, want function-name bit", tok.Meta)
	}
	if tok.Position != 3 {
		t.Errorf("readfile position = %d, want 3", tok.Position)
	}
	if pkg, ok := findToken(tokens, "package"); !ok || pkg.Meta != models.MetaNone {
		t.Errorf("package token = %+v, %v; want plain token", pkg, ok)
	}
}

func TestTokenizeCodeLowercasesTerms(t *testing.T) {
	tokens, _, _ := Tokenize(strings.NewReader("VALUE := MixedCase\n"), models.DocTypeCode)
	for _, tok := range tokens {
		if tok.Term != strings.ToLower(tok.Term) {
			t.Errorf("term %q not lowercased", tok.Term)
		}
	}
	if _, ok := findToken(tokens, "mixedcase"); !ok {
		t.Errorf("missing mixedcase in %v", tokens)
	}
}

func TestTokenizeLogLevels(t *testing.T) {
	log := "2024-03-01 10:00:00 ERROR disk failed\n2024-03-01 10:05:00 WARN retrying\nplain line\n"
	tokens, minT, maxT := Tokenize(strings.NewReader(log), models.DocTypeLog)

	disk, ok := findToken(tokens, "disk")
	if !ok || disk.Meta&models.MetaLogLevelError == 0 {
		t.Errorf("disk token = %+v, %v; want error bit", disk, ok)
	}
	retrying, ok := findToken(tokens, "retrying")
	if !ok || retrying.Meta&models.MetaLogLevelWarn == 0 {
		t.Errorf("retrying token = %+v, %v; want warn bit", retrying, ok)
	}
	plain, ok := findToken(tokens, "plain")
	if !ok || plain.Meta != models.MetaNone {
		t.Errorf("plain token = %+v, %v; want no bits", plain, ok)
	}

	wantMin := parseTimestamp("2024-03-01 10:00:00")
	wantMax := parseTimestamp("2024-03-01 10:05:00")
	if minT != wantMin || maxT != wantMax {
		t.Errorf("timestamps = %d/%d, want %d/%d", minT, maxT, wantMin, wantMax)
	}
}

func TestTokenizeLogErrorWinsOverWarn(t *testing.T) {
	// A line mentioning both levels counts as an error line.
	tokens, _, _ := Tokenize(strings.NewReader("ERROR while handling WARN counter\n"), models.DocTypeLog)
	counter, ok := findToken(tokens, "counter")
	if !ok {
		t.Fatal("missing counter token")
	}
	if counter.Meta&models.MetaLogLevelError == 0 {
		t.Errorf("counter meta = %08b, want error bit", counter.Meta)
	}
	if counter.Meta&models.MetaLogLevelWarn != 0 {
		t.Errorf("counter meta = %08b, want warn bit unset", counter.Meta)
	}
}

func TestTokenizeLogFoldsAccents(t *testing.T) {
	tokens, _, _ := Tokenize(strings.NewReader("request from café failed\n"), models.DocTypeLog)
	if _, ok := findToken(tokens, "cafe"); !ok {
		t.Errorf("café not folded to cafe: %v", tokens)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name string
		line string
		zero bool
	}{
		{"space separator", "2024-03-01 10:00:00 ok", false},
		{"t separator", "2024-03-01T10:00:00 ok", false},
		{"short line", "short", true},
		{"no timestamp", "something else entirely here", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTimestamp(tt.line)
			if tt.zero && got != 0 {
				t.Errorf("parseTimestamp(%q) = %d, want 0", tt.line, got)
			}
			if !tt.zero && got == 0 {
				t.Errorf("parseTimestamp(%q) = 0, want non-zero", tt.line)
			}
		})
	}
}

func TestFileNameTokens(t *testing.T) {
	tokens := FileNameTokens("src/pkg/HTTP_server.go")
	want := []string{"http_server", "go"}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(tokens), tokens, len(want))
	}
	for i, w := range want {
		if tokens[i].Term != w {
			t.Errorf("token[%d] = %q, want %q", i, tokens[i].Term, w)
		}
		if tokens[i].Position != 0 {
			t.Errorf("token[%d] position = %d, want 0", i, tokens[i].Position)
		}
		if tokens[i].Meta&models.MetaInFileName == 0 {
			t.Errorf("token[%d] meta = %08b, want filename bit", i, tokens[i].Meta)
		}
	}
}

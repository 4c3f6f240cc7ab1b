package index

import (
	"bufio"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"devscope/internal/models"
)

// RawToken is a single term occurrence before it is merged into the index.
// Position is the 1-based line number; file name tokens sit at position 0.
type RawToken struct {
	Term     string
	Position uint32
	Meta     uint8
}

var (
	reIdentifier = regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*`)
	reFuncDef    = regexp.MustCompile(`(func|def|function|class|struct)\s+([a-zA-Z_][a-zA-Z0-9_]*)`)
	reFileToken  = regexp.MustCompile(`[a-zA-Z0-9_]+`)
)

const (
	timestampLayout = "2006-01-02T15:04:05"

	// maxLineBytes bounds the scanner so minified or generated single-line
	// files do not abort tokenization.
	maxLineBytes = 1024 * 1024
)

// Tokenize scans r line by line and returns its term occurrences. For log
// documents it also returns the min and max Unix timestamps found on the
// lines (both zero when none parse).
func Tokenize(r io.Reader, docType models.DocType) ([]RawToken, int64, int64) {
	if docType == models.DocTypeLog {
		return tokenizeLog(r)
	}
	return tokenizeCode(r), 0, 0
}

func tokenizeCode(r io.Reader) []RawToken {
	var tokens []RawToken
	scanner := newLineScanner(r)
	lineNum := uint32(1)

	for scanner.Scan() {
		line := scanner.Text()

		funcName := ""
		if m := reFuncDef.FindStringSubmatch(line); len(m) > 2 {
			funcName = m[2]
		}

		for _, term := range reIdentifier.FindAllString(line, -1) {
			meta := models.MetaNone
			if term == funcName {
				meta |= models.MetaInFunctionName
			}
			tokens = append(tokens, RawToken{
				Term:     strings.ToLower(term),
				Position: lineNum,
				Meta:     meta,
			})
		}
		lineNum++
	}
	return tokens
}

func tokenizeLog(r io.Reader) ([]RawToken, int64, int64) {
	var tokens []RawToken
	var minTime, maxTime int64
	scanner := newLineScanner(r)
	lineNum := uint32(1)

	for scanner.Scan() {
		line := foldAccents(scanner.Text())

		if ts := parseTimestamp(line); ts > 0 {
			if minTime == 0 || ts < minTime {
				minTime = ts
			}
			if ts > maxTime {
				maxTime = ts
			}
		}

		meta := models.MetaNone
		upper := strings.ToUpper(line)
		if strings.Contains(upper, "ERROR") {
			meta |= models.MetaLogLevelError
		} else if strings.Contains(upper, "WARN") {
			meta |= models.MetaLogLevelWarn
		}

		for _, term := range reIdentifier.FindAllString(line, -1) {
			tokens = append(tokens, RawToken{
				Term:     strings.ToLower(term),
				Position: lineNum,
				Meta:     meta,
			})
		}
		lineNum++
	}
	return tokens, minTime, maxTime
}

// FileNameTokens derives terms from the file's base name, so "main.cpp"
// matches queries for "main" or "cpp".
func FileNameTokens(path string) []RawToken {
	words := reFileToken.FindAllString(filepath.Base(path), -1)
	tokens := make([]RawToken, 0, len(words))
	for _, w := range words {
		tokens = append(tokens, RawToken{
			Term:     strings.ToLower(w),
			Position: 0,
			Meta:     models.MetaInFileName,
		})
	}
	return tokens
}

// parseTimestamp recognizes a leading "2006-01-02 15:04:05" (space or T
// separator) and returns it as Unix seconds, or 0.
func parseTimestamp(line string) int64 {
	if len(line) < 19 {
		return 0
	}
	chunk := strings.Replace(line[:19], " ", "T", 1)
	t, err := time.Parse(timestampLayout, chunk)
	if err != nil {
		return 0
	}
	return t.Unix()
}

// foldAccents decomposes to NFD and drops combining marks so accented log
// text matches its plain-ASCII spelling.
func foldAccents(s string) string {
	if isASCII(s) {
		return s
	}
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return scanner
}

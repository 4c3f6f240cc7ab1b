package query

import (
	"bufio"
	"os"
	"strings"
)

// snippetMaxLen is where a matched line gets cut off.
const snippetMaxLen = 200

// Snippet returns the first line of the file at path containing term
// (case-insensitive), trimmed and truncated, plus its 1-based line number.
// Unreadable files yield an empty snippet, never an error: the index may
// outlive the tree it was built from.
func Snippet(path, term string) (string, uint32) {
	if term == "" {
		return "", 0
	}
	f, err := os.Open(path)
	if err != nil {
		return "", 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	termLower := strings.ToLower(term)
	lineNum := uint32(1)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(strings.ToLower(line), termLower) {
			if len(line) > snippetMaxLen {
				line = line[:snippetMaxLen] + "..."
			}
			return strings.TrimSpace(line), lineNum
		}
		lineNum++
	}
	return "", 0
}

// Package output renders command results as text or JSON, with optional
// color.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	"devscope/internal/query"
	"devscope/internal/store"
)

// Formatter handles text/JSON/colored output.
type Formatter struct {
	Writer    io.Writer
	ErrWriter io.Writer
	JSON      bool
	Color     bool
}

// NewFormatter creates a new output formatter.
func NewFormatter(jsonMode, colorMode bool) *Formatter {
	return &Formatter{
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		JSON:      jsonMode,
		Color:     colorMode,
	}
}

// Printf prints formatted text to stdout.
func (f *Formatter) Printf(format string, args ...interface{}) {
	fmt.Fprintf(f.Writer, format, args...)
}

// Println prints a line to stdout.
func (f *Formatter) Println(args ...interface{}) {
	fmt.Fprintln(f.Writer, args...)
}

// Errorf prints a formatted error message to stderr.
func (f *Formatter) Errorf(format string, args ...interface{}) {
	if f.Color {
		c := color.New(color.FgRed)
		c.Fprintf(f.ErrWriter, format, args...)
	} else {
		fmt.Fprintf(f.ErrWriter, format, args...)
	}
}

// PrintJSON outputs a value as JSON.
func (f *Formatter) PrintJSON(v interface{}) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatPath formats a result path with color.
func (f *Formatter) FormatPath(path string) string {
	if f.Color {
		return color.New(color.FgCyan).Sprint(path)
	}
	return path
}

// --- search output ---

// PrintResults prints ranked search results with their snippets.
func (f *Formatter) PrintResults(results []query.SearchResult, elapsed time.Duration) {
	if f.JSON {
		if results == nil {
			results = []query.SearchResult{}
		}
		f.PrintJSON(map[string]interface{}{
			"count":   len(results),
			"elapsed": elapsed.String(),
			"results": results,
		})
		return
	}

	fmt.Fprintf(f.Writer, "Found %d results in %v:\n", len(results), elapsed)
	for i, res := range results {
		fmt.Fprintf(f.Writer, "%d. %s (Line: %d, Score: %.2f, Matches: %d)\n",
			i+1, f.FormatPath(res.Path), res.LineNum, res.Score, res.MatchCount)
		if res.Snippet != "" {
			fmt.Fprintf(f.Writer, "   %s\n", res.Snippet)
		}
		fmt.Fprintln(f.Writer)
	}
}

// --- stats output ---

// Stats is the view rendered by the stats command.
type Stats struct {
	Backend  string         `json:"backend"`
	Manifest store.Manifest `json:"manifest"`
}

// PrintStats prints backend and manifest details for the current index.
func (f *Formatter) PrintStats(s Stats) {
	if f.JSON {
		f.PrintJSON(s)
		return
	}

	fmt.Fprintf(f.Writer, "Backend: %s\n", s.Backend)
	fmt.Fprintf(f.Writer, "   Root: %s\n", s.Manifest.Root)
	fmt.Fprintf(f.Writer, "  Built: %s (%s ago)\n",
		s.Manifest.BuiltAt.Format(time.RFC3339), age(s.Manifest.BuiltAt))
	fmt.Fprintf(f.Writer, "  Build: %s\n", s.Manifest.BuildID)
	fmt.Fprintf(f.Writer, "   Docs: %d\n", s.Manifest.TotalDocs)
	fmt.Fprintf(f.Writer, "  Terms: %d\n", s.Manifest.TotalTerms)
}

// age formats the time since t coarsely, seconds up to days.
func age(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

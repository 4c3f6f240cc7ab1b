package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"devscope/internal/query"
)

func (r *Router) handleSearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	limit := fs.IntP("limit", "l", r.Config.Limit, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("search: usage: search <query> (quote phrases, filter with level: and ext:)")
	}

	backend, err := r.openBackend(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()

	reader, err := r.openReader(ctx, backend)
	if err != nil {
		return err
	}
	defer reader.Close()

	searcher := query.NewSearcher(reader)
	searcher.Limit = *limit

	start := time.Now()
	results, err := searcher.Search(ctx, joinQuery(fs.Args()))
	if err != nil {
		return err
	}
	r.Formatter.PrintResults(results, time.Since(start))
	return nil
}

// joinQuery reassembles query arguments into the raw query string. An
// argument containing whitespace was a quoted phrase before the shell (or
// Split) removed the quotes, so it is quoted again for the parser.
func joinQuery(args []string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t") && !strings.HasPrefix(a, `"`) {
			a = `"` + a + `"`
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}

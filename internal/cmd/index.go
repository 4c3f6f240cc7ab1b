package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"devscope/internal/index"
	"devscope/internal/notify"
)

func (r *Router) handleIndex(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("index", flag.ContinueOnError)
	workers := fs.IntP("workers", "w", r.Config.Workers, "Tokenizer workers (0 = all CPUs)")
	verbose := fs.BoolP("verbose", "v", r.Config.Verbose, "Announce every file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("index: %s is not a directory", root)
	}

	backend, err := r.openBackend(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()

	b := &index.Builder{
		Workers: *workers,
		SkipDir: r.Config.IndexDir,
		Logger:  r.Logger,
	}
	if *verbose {
		b.Progress = func(indexed int, path string) {
			notify.Fprint(r.Formatter.Writer, path)
		}
	}

	start := time.Now()
	idx, err := b.Build(ctx, root)
	if err != nil {
		return err
	}
	man, err := backend.WriteIndex(ctx, idx)
	if err != nil {
		return err
	}

	if r.Formatter.JSON {
		return r.Formatter.PrintJSON(man)
	}
	r.Formatter.Printf("Indexed %d files (%d terms) in %v\n",
		man.TotalDocs, man.TotalTerms, time.Since(start).Round(time.Millisecond))
	return nil
}

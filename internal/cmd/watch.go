package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"devscope/internal/index"
	"devscope/internal/store"
	"devscope/internal/watch"
)

func (r *Router) handleWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	debounce := fs.Duration("debounce", r.Config.Debounce, "Rebuild debounce window")
	if err := fs.Parse(args); err != nil {
		return err
	}

	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch: %s is not a directory", root)
	}

	backend, err := r.openBackend(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()

	rebuild := r.rebuilder(backend, root)
	if err := rebuild(ctx); err != nil {
		return err
	}

	r.Formatter.Printf("Watching %s (Ctrl-C to stop)\n", root)
	w := &watch.Watcher{
		Root:     root,
		SkipDir:  r.Config.IndexDir,
		Debounce: *debounce,
		Rebuild:  rebuild,
		Logger:   r.Logger,
	}
	return w.Run(ctx)
}

// rebuilder returns the function watch mode runs after each settle: crawl
// root, tokenize, and republish through backend.
func (r *Router) rebuilder(backend store.Backend, root string) func(context.Context) error {
	return func(ctx context.Context) error {
		b := &index.Builder{
			Workers: r.Config.Workers,
			SkipDir: r.Config.IndexDir,
			Logger:  r.Logger,
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
		r.Logger.Info("index rebuilt",
			"docs", man.TotalDocs,
			"terms", man.TotalTerms,
			"elapsed", time.Since(start).Round(time.Millisecond))
		return nil
	}
}

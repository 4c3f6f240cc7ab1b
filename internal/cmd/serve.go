package cmd

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"devscope/internal/server"
	"devscope/internal/watch"
)

func (r *Router) handleServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", r.Config.Addr, "Listen address")
	watchRoot := fs.String("watch", "", "Rebuild the index from this root on changes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("serve: unexpected argument %q (use --watch <root>)", fs.Arg(0))
	}

	backend, err := r.openBackend(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()

	srv, err := server.New(server.Config{
		Addr:    *addr,
		Backend: backend,
		Limit:   r.Config.Limit,
		Logger:  r.Logger,
	})
	if err != nil {
		return err
	}

	if *watchRoot == "" {
		return srv.Start(ctx)
	}

	info, err := os.Stat(*watchRoot)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("serve: %s is not a directory", *watchRoot)
	}

	// Served queries read from a cached index; every republish drops the
	// cache so the next request sees the fresh build.
	rebuild := r.rebuilder(backend, *watchRoot)
	refresh := func(ctx context.Context) error {
		if err := rebuild(ctx); err != nil {
			return err
		}
		srv.Invalidate()
		return nil
	}
	if err := refresh(ctx); err != nil {
		return err
	}

	w := &watch.Watcher{
		Root:     *watchRoot,
		SkipDir:  r.Config.IndexDir,
		Debounce: r.Config.Debounce,
		Rebuild:  refresh,
		Logger:   r.Logger,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(ctx) })
	g.Go(func() error { return srv.Start(ctx) })
	return g.Wait()
}

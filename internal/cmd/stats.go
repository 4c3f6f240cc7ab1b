package cmd

import (
	"context"
	"errors"
	"fmt"

	"devscope/internal/output"
	"devscope/internal/store"
)

func (r *Router) handleStats(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("stats: takes no arguments")
	}

	backend, err := r.openBackend(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()

	man, err := backend.ReadManifest(ctx)
	if errors.Is(err, store.ErrNoIndex) {
		return fmt.Errorf("no index found (run 'index <path>' first)")
	}
	if err != nil {
		return err
	}

	r.Formatter.PrintStats(output.Stats{
		Backend:  backend.Describe(),
		Manifest: man,
	})
	return nil
}

package cmd

import (
	"context"
	"strings"

	"devscope/internal/notify"
)

func (r *Router) handleNotify(ctx context.Context, args []string) error {
	item := "photo.jpg"
	if len(args) > 0 {
		item = strings.Join(args, " ")
	}
	notify.Fprint(r.Formatter.Writer, item)
	return nil
}

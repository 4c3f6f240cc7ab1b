package cmd

import (
	"context"
	"fmt"
)

var commandHelp = map[string]string{
	"index":   "index [path] [-w n] [-v]    Build the index for a tree",
	"search":  "search <query> [-l n]       Search the index (quote phrases; level: and ext: filter)",
	"stats":   "stats                       Show details of the stored index",
	"watch":   "watch [path] [--debounce d] Rebuild the index when the tree changes",
	"serve":   "serve [--addr a] [--watch root]  Serve the HTTP search API",
	"notify":  "notify [item]               Announce processing of an item",
	"version": "version                     Show version",
	"help":    "help [command]              Show this help",
	"clear":   "clear                       Clear the terminal",
	"exit":    "exit / quit                 Exit the REPL",
}

func (r *Router) handleHelp(ctx context.Context, args []string) error {
	if len(args) > 0 {
		cmd := args[0]
		if help, ok := commandHelp[cmd]; ok {
			fmt.Fprintln(r.Formatter.Writer, help)
		} else {
			fmt.Fprintf(r.Formatter.Writer, "No help available for '%s'\n", cmd)
		}
		return nil
	}

	fmt.Fprintln(r.Formatter.Writer, "devscope — search engine for code and logs")
	fmt.Fprintln(r.Formatter.Writer, "")
	fmt.Fprintln(r.Formatter.Writer, "Index commands:")
	for _, cmd := range []string{"index", "watch", "serve"} {
		fmt.Fprintf(r.Formatter.Writer, "  %s\n", commandHelp[cmd])
	}
	fmt.Fprintln(r.Formatter.Writer, "")
	fmt.Fprintln(r.Formatter.Writer, "Query commands:")
	for _, cmd := range []string{"search", "stats"} {
		fmt.Fprintf(r.Formatter.Writer, "  %s\n", commandHelp[cmd])
	}
	fmt.Fprintln(r.Formatter.Writer, "")
	fmt.Fprintln(r.Formatter.Writer, "Other:")
	for _, cmd := range []string{"notify", "version", "help", "clear", "exit"} {
		fmt.Fprintf(r.Formatter.Writer, "  %s\n", commandHelp[cmd])
	}
	fmt.Fprintln(r.Formatter.Writer, "")
	fmt.Fprintln(r.Formatter.Writer, "Any unrecognized input is searched as a query.")
	return nil
}

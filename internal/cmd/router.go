package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"devscope/internal/config"
	"devscope/internal/output"
	"devscope/internal/store"
)

// Version is stamped at build time.
var Version = "dev"

// Router dispatches commands to the appropriate handler.
type Router struct {
	Config    *config.Config
	Formatter *output.Formatter
	Logger    *slog.Logger
	handlers  map[string]Handler
}

// Handler is a function that handles a command.
type Handler func(ctx context.Context, args []string) error

// NewRouter creates a command router with all registered handlers.
func NewRouter(cfg *config.Config, formatter *output.Formatter, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		Config:    cfg,
		Formatter: formatter,
		Logger:    logger,
		handlers:  make(map[string]Handler),
	}
	r.registerHandlers()
	return r
}

func (r *Router) registerHandlers() {
	r.handlers["index"] = r.handleIndex
	r.handlers["search"] = r.handleSearch
	r.handlers["stats"] = r.handleStats
	r.handlers["watch"] = r.handleWatch
	r.handlers["serve"] = r.handleServe
	r.handlers["notify"] = r.handleNotify
	r.handlers["version"] = r.handleVersion
	r.handlers["help"] = r.handleHelp
	r.handlers["clear"] = r.handleClear
}

// Dispatch runs a single command, as invoked from the shell.
func (r *Router) Dispatch(ctx context.Context, name string, args []string) error {
	handler, ok := r.handlers[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("unknown command: %s (try 'help')", name)
	}
	return handler(ctx, args)
}

// Execute runs a raw REPL line. A line that does not start with a known
// command is searched as-is.
func (r *Router) Execute(ctx context.Context, line string) error {
	tokens, err := Split(line)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	name := strings.ToLower(tokens[0])
	if handler, ok := r.handlers[name]; ok {
		return handler(ctx, tokens[1:])
	}
	return r.handleSearch(ctx, tokens)
}

// IsBuiltin returns true if the command is a registered command.
func (r *Router) IsBuiltin(name string) bool {
	_, ok := r.handlers[strings.ToLower(name)]
	return ok
}

// CommandNames returns all registered command names.
func (r *Router) CommandNames() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

// openBackend picks the store from configuration: Redis when a URI is
// set, the artifact directory otherwise.
func (r *Router) openBackend(ctx context.Context) (store.Backend, error) {
	if r.Config.RedisURI != "" {
		return store.OpenRedis(ctx, r.Config.RedisURI, r.Config.IndexName)
	}
	return store.OpenFile(r.Config.IndexDir), nil
}

// openReader opens the stored index for querying, turning the missing-index
// sentinel into an actionable message.
func (r *Router) openReader(ctx context.Context, backend store.Backend) (*store.Reader, error) {
	reader, err := backend.OpenReader(ctx)
	if errors.Is(err, store.ErrNoIndex) {
		return nil, fmt.Errorf("no index found (run 'index <path>' first)")
	}
	return reader, err
}

func (r *Router) handleVersion(ctx context.Context, args []string) error {
	r.Formatter.Printf("devscope %s\n", Version)
	return nil
}

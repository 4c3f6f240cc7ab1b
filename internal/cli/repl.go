package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"devscope/internal/cmd"
	"devscope/internal/config"
	"devscope/internal/output"
)

// REPL is the interactive read-eval-print loop.
type REPL struct {
	Router    *cmd.Router
	Config    *config.Config
	Formatter *output.Formatter
}

// NewREPL creates a new REPL instance.
func NewREPL(router *cmd.Router, cfg *config.Config, formatter *output.Formatter) *REPL {
	return &REPL{
		Router:    router,
		Config:    cfg,
		Formatter: formatter,
	}
}

// Run starts the interactive REPL loop.
func (r *REPL) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          BuildPrompt(r.Config.IndexDir, r.Config.ShouldColor()),
		HistoryFile:     r.Config.HistoryFile,
		HistoryLimit:    10000,
		AutoComplete:    NewCompleter(r.Router),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Handle exit/quit
		lower := strings.ToLower(line)
		if lower == "exit" || lower == "quit" {
			return nil
		}

		if execErr := r.Router.Execute(ctx, line); execErr != nil {
			r.Formatter.Errorf("%s\n", execErr)
		}
	}
}

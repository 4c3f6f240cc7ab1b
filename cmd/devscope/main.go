package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"devscope/internal/cli"
	"devscope/internal/cmd"
	"devscope/internal/config"
	"devscope/internal/logging"
	"devscope/internal/output"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Default()

	// Custom flag set to avoid os.Exit on parse error
	flags := flag.NewFlagSet("devscope", flag.ContinueOnError)
	flags.SetInterspersed(false) // Stop parsing at first non-flag arg (the command)
	cfg.RegisterFlags(flags)
	showVersion := flags.Bool("version", false, "Show version and exit")

	// Parse flags; remaining args are the command and its arguments
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 2
	}
	cfg.Args = flags.Args()

	if *showVersion {
		fmt.Printf("devscope %s\n", cmd.Version)
		return 0
	}

	if cfg.ConfigFile != "" {
		if err := cfg.ApplyFile(cfg.ConfigFile, flags); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return 2
		}
	}

	level := slog.LevelInfo
	if cfg.LogLevel != "" {
		parsed, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return 2
		}
		level = parsed
	}
	logger := logging.Init(level)

	// Set up color
	if !cfg.ShouldColor() {
		color.NoColor = true
	}

	formatter := output.NewFormatter(cfg.JSON, cfg.ShouldColor())

	// Ctrl-C cancels watch and serve cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := cmd.NewRouter(cfg, formatter, logger)

	// Single-command mode
	if len(cfg.Args) > 0 {
		if err := router.Dispatch(ctx, cfg.Args[0], cfg.Args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			return 1
		}
		return 0
	}

	// Interactive REPL mode
	repl := cli.NewREPL(router, cfg, formatter)
	if err := repl.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	return 0
}

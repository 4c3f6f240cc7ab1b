// Package config resolves devscope's runtime settings. Precedence, lowest
// to highest: built-in defaults, environment, an optional YAML file, then
// command-line flags.
package config

import (
	"os"
	"strconv"
	"time"

	flag "github.com/spf13/pflag"

	"devscope/internal/models"
)

// Config holds all runtime configuration.
type Config struct {
	// Addr is the HTTP listen address for `serve`.
	Addr string
	// IndexDir is where file-backend artifacts live.
	IndexDir string
	// IndexName namespaces the Redis keys of one index.
	IndexName string
	// RedisURI selects the Redis backend when non-empty.
	RedisURI string

	Workers  int
	Limit    int
	Debounce time.Duration

	Verbose  bool
	JSON     bool
	NoColor  bool
	Color    bool
	LogLevel string

	ConfigFile  string
	HistoryFile string

	// Args holds what remains after global flag parsing: the command and
	// its arguments.
	Args []string
}

// Default returns a Config with built-in defaults, overridden by the
// DEVSCOPE_* environment where set.
func Default() *Config {
	home, _ := os.UserHomeDir()
	histFile := home + "/.devscope_history"
	if env := os.Getenv("DEVSCOPE_HISTORY"); env != "" {
		histFile = env
	}

	indexDir := models.DefaultIndexDir
	if env := os.Getenv("DEVSCOPE_DIR"); env != "" {
		indexDir = env
	}

	addr := ":8080"
	if env := os.Getenv("DEVSCOPE_ADDR"); env != "" {
		addr = env
	}

	name := "default"
	if env := os.Getenv("DEVSCOPE_INDEX"); env != "" {
		name = env
	}

	workers := 0
	if env := os.Getenv("DEVSCOPE_WORKERS"); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n > 0 {
			workers = n
		}
	}

	return &Config{
		Addr:        addr,
		IndexDir:    indexDir,
		IndexName:   name,
		RedisURI:    os.Getenv("DEVSCOPE_REDIS"),
		Workers:     workers,
		Limit:       10,
		Debounce:    500 * time.Millisecond,
		HistoryFile: histFile,
	}
}

// RegisterFlags registers the global flags on the given flag set.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVarP(&c.IndexDir, "dir", "d", c.IndexDir, "Index directory")
	fs.StringVarP(&c.RedisURI, "redis", "u", c.RedisURI, "Redis URI (redis://...); selects the Redis backend")
	fs.StringVar(&c.IndexName, "name", c.IndexName, "Index name (Redis key namespace)")
	fs.StringVar(&c.Addr, "addr", c.Addr, "HTTP listen address for serve")
	fs.IntVarP(&c.Workers, "workers", "w", c.Workers, "Tokenizer workers (0 = all CPUs)")
	fs.IntVarP(&c.Limit, "limit", "l", c.Limit, "Maximum search results")
	fs.DurationVar(&c.Debounce, "debounce", c.Debounce, "Watch mode rebuild debounce")

	fs.BoolVarP(&c.Verbose, "verbose", "v", false, "Announce every file while indexing")
	fs.BoolVar(&c.JSON, "json", false, "JSON output mode")
	fs.BoolVar(&c.NoColor, "no-color", false, "Disable colors")
	fs.BoolVar(&c.Color, "color", false, "Force colors")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	fs.StringVarP(&c.ConfigFile, "config", "c", "", "Path to a YAML config file")
}

// ShouldColor returns true if color output should be enabled.
func (c *Config) ShouldColor() bool {
	if c.NoColor {
		return false
	}
	if c.Color {
		return true
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return true
}

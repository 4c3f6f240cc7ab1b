package cli

import (
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"devscope/internal/cmd"
)

// commandFlags lists each command's completable flags.
var commandFlags = map[string][]string{
	"index":  {"--workers", "--verbose"},
	"search": {"--limit"},
	"watch":  {"--debounce"},
	"serve":  {"--addr", "--watch"},
}

// NewCompleter creates a tab completer for the REPL.
func NewCompleter(router *cmd.Router) *Completer {
	return &Completer{router: router}
}

// Completer completes command names and their flags.
type Completer struct {
	router *cmd.Router
}

// Do implements readline.AutoCompleter.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	lineStr := string(line[:pos])
	parts := strings.Fields(lineStr)

	// Complete command name
	if len(parts) == 0 || (len(parts) == 1 && !strings.HasSuffix(lineStr, " ")) {
		prefix := ""
		if len(parts) == 1 {
			prefix = parts[0]
		}
		return c.completeCommand(prefix), len(prefix)
	}

	// Complete a flag of the current command
	partial := ""
	if !strings.HasSuffix(lineStr, " ") {
		partial = parts[len(parts)-1]
	}
	if strings.HasPrefix(partial, "-") {
		return c.completeFlag(parts[0], partial), len(partial)
	}

	return nil, 0
}

func (c *Completer) completeCommand(prefix string) [][]rune {
	var candidates []string
	for _, name := range c.router.CommandNames() {
		if strings.HasPrefix(name, strings.ToLower(prefix)) {
			candidates = append(candidates, name)
		}
	}
	sort.Strings(candidates)

	result := make([][]rune, len(candidates))
	for i, name := range candidates {
		result[i] = []rune(name[len(prefix):] + " ")
	}
	return result
}

func (c *Completer) completeFlag(command, partial string) [][]rune {
	var candidates [][]rune
	for _, f := range commandFlags[strings.ToLower(command)] {
		if strings.HasPrefix(f, partial) {
			candidates = append(candidates, []rune(f[len(partial):]+" "))
		}
	}
	return candidates
}

// Ensure Completer satisfies the readline.AutoCompleter interface.
var _ readline.AutoCompleter = (*Completer)(nil)

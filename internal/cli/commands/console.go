package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/leapstack-labs/scenariowatch/internal/engine"
	"github.com/leapstack-labs/scenariowatch/internal/notify"
)

const consolePrompt = "scenariowatch> "

// consoleAction is what a console line asks for.
type consoleAction int

const (
	actionNone consoleAction = iota
	actionRunAll
	actionReload
	actionQuit
	actionHelp
	actionUnknown
)

// parseConsoleLine maps a console line to an action. An empty line runs
// every scenario.
func parseConsoleLine(line string) consoleAction {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "all", "a":
		return actionRunAll
	case "reload", "r":
		return actionReload
	case "quit", "exit", "q":
		return actionQuit
	case "help", "h", "?":
		return actionHelp
	default:
		return actionUnknown
	}
}

// promptFor shows the outcome of the last run in the prompt.
func promptFor(ev notify.RunEvent) string {
	if ev.Summary.Passed {
		return "scenariowatch [passed]> "
	}
	return fmt.Sprintf("scenariowatch [%d failed]> ", len(ev.Summary.FailedPaths))
}

// console is the interactive prompt of the watch command.
type console struct {
	rl     *readline.Instance
	eng    *engine.Engine
	out    io.Writer
	onQuit func()
}

func newConsole(eng *engine.Engine, out io.Writer, historyFile string, onQuit func()) (*console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          consolePrompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("all"),
			readline.PcItem("reload"),
			readline.PcItem("help"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize console: %w", err)
	}
	return &console{rl: rl, eng: eng, out: out, onQuit: onQuit}, nil
}

// SetPrompt replaces the prompt.
func (c *console) SetPrompt(p string) {
	c.rl.SetPrompt(p)
	c.rl.Refresh()
}

// Close unblocks a pending Readline.
func (c *console) Close() error {
	return c.rl.Close()
}

// Run reads commands until quit, Ctrl-C, Ctrl-D or ctx cancellation.
func (c *console) Run(ctx context.Context) error {
	for {
		line, err := c.rl.Readline()
		if err != nil {
			// Ctrl-C, Ctrl-D, or Close from the shutdown path.
			if ctx.Err() == nil {
				c.onQuit()
			}
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		switch parseConsoleLine(line) {
		case actionRunAll:
			if err := c.eng.RunAll(ctx); err != nil && !errors.Is(err, engine.ErrTaskFailed) && ctx.Err() == nil {
				_, _ = fmt.Fprintf(c.out, "Error: %v\n", err)
			}
		case actionReload:
			c.eng.Reload()
			_, _ = fmt.Fprintln(c.out, "Failure memory cleared")
		case actionQuit:
			c.onQuit()
			return nil
		case actionHelp:
			printConsoleHelp(c.out)
		default:
			_, _ = fmt.Fprintf(c.out, "Unknown command: %s (type help for commands)\n", strings.TrimSpace(line))
		}
	}
}

func printConsoleHelp(w io.Writer) {
	help := `
Commands:
  <Enter> / all   Run every scenario
  reload          Forget remembered failures
  help            Show this help message
  quit / exit     Stop watching
`
	_, _ = fmt.Fprintln(w, help)
}

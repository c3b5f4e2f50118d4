package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todo/internal/config"
	"todo/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "todo help" }
func (c *HelpCmd) NeedsBackend() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	writeHelp(out, DefaultRegistry)
	return exitcode.Success
}

func writeHelp(out io.Writer, r *Registry) {
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintf(out, "  %-32s %s\n", "todo", "List all todos")
	for _, cmd := range r.All() {
		line := cmd.Synopsis()
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			line += " (alias: " + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintf(out, "  %-32s %s\n", cmd.Usage(), line)
	}
	fmt.Fprint(out, helpFooter)
}

const helpFooter = `
A <ref> is a 1-based position from 'todo ls' or a todo id.

Common flags:
  --config <dir>     Override config directory
  --backend <name>   Storage backend: stub, sqlite, googletasks
  --quiet            Suppress informational output
  --debug            Print debug logs to stderr
`

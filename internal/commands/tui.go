package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/tui"
)

func init() {
	Register(&TuiCmd{})
}

// TuiCmd implements the tui command.
type TuiCmd struct{}

func (c *TuiCmd) Name() string       { return "tui" }
func (c *TuiCmd) Aliases() []string  { return []string{"ui"} }
func (c *TuiCmd) Synopsis() string   { return "Interactive list" }
func (c *TuiCmd) Usage() string      { return "todo tui" }
func (c *TuiCmd) NeedsBackend() bool { return true }

func (c *TuiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *TuiCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	if err := sess.StartBackground(); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	if err := tui.Run(ctx, sess.Store, sess.Actions); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}

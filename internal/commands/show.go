package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/state"
)

func init() {
	Register(&ShowCmd{})
}

// ShowCmd implements the show command.
type ShowCmd struct{}

func (c *ShowCmd) Name() string       { return "show" }
func (c *ShowCmd) Aliases() []string  { return nil }
func (c *ShowCmd) Synopsis() string   { return "Fetch one todo by id" }
func (c *ShowCmd) Usage() string      { return "todo show <id>" }
func (c *ShowCmd) NeedsBackend() bool { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(errOut, "error: todo id required")
		return exitcode.UserError
	}
	id := strings.TrimSpace(args[0])

	before := len(sess.Store.State().Todos)
	if te := sess.Dispatch(ctx, state.FetchTodoByID{ID: id}); te != nil {
		return fail(errOut, te)
	}

	todos := sess.Store.State().Todos
	if len(todos) == before {
		fmt.Fprintf(errOut, "error: todo not found: %s\n", id)
		return exitcode.UserError
	}

	output.FormatDetail(out, todos[len(todos)-1])
	return exitcode.Success
}

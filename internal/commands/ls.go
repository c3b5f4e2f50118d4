package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/service"
	"todo/internal/state"
	"todo/internal/todoerr"
)

func init() {
	Register(&LsCmd{})
}

// LsCmd implements the ls command.
// Handles both `todo` (no args) and `todo ls`.
type LsCmd struct {
	reverse bool
	open    bool
}

// SetReverse sets the display order (for testing).
func (c *LsCmd) SetReverse(reverse bool) {
	c.reverse = reverse
}

// SetOpenOnly hides completed todos (for testing).
func (c *LsCmd) SetOpenOnly(open bool) {
	c.open = open
}

func (c *LsCmd) Name() string       { return "ls" }
func (c *LsCmd) Aliases() []string  { return []string{"list"} }
func (c *LsCmd) Synopsis() string   { return "List todos" }
func (c *LsCmd) Usage() string      { return "todo ls [--reverse] [--open]" }
func (c *LsCmd) NeedsBackend() bool { return true }

func (c *LsCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.reverse, "reverse", false, "")
	fs.BoolVar(&c.reverse, "r", false, "")
	fs.BoolVar(&c.open, "open", false, "")
}

func (c *LsCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	todos, code := fetchAll(ctx, sess, errOut)
	if code != exitcode.Success {
		return code
	}

	// Positions always refer to fetch order so they stay valid for done/rm.
	n := len(todos)
	if c.reverse {
		if te := sess.Dispatch(ctx, state.ReorderTodos{}); te != nil {
			return fail(errOut, te)
		}
		todos = sess.Store.State().Todos
	}

	printed := 0
	for i, todo := range todos {
		if c.open && todo.Completed {
			continue
		}
		num := i + 1
		if c.reverse {
			num = n - i
		}
		output.FormatTodo(out, num, todo)
		printed++
	}

	if printed == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "no todos found")
	}
	return exitcode.Success
}

// fetchAll loads the list through the container.
func fetchAll(ctx context.Context, sess *Session, errOut io.Writer) ([]service.Todo, int) {
	if te := sess.Dispatch(ctx, state.FetchTodos{}); te != nil {
		return nil, fail(errOut, te)
	}
	return sess.Store.State().Todos, exitcode.Success
}

// fail prints te and returns its exit code.
func fail(errOut io.Writer, te *todoerr.Error) int {
	output.FormatError(errOut, te)
	return exitcode.ForKind(te.Kind)
}

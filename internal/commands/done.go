package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
	"todo/internal/state"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command. It flips completion, so running it
// twice reopens the todo.
type DoneCmd struct{}

func (c *DoneCmd) Name() string       { return "done" }
func (c *DoneCmd) Aliases() []string  { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string   { return "Toggle a todo's completion" }
func (c *DoneCmd) Usage() string      { return "todo done <ref>" }
func (c *DoneCmd) NeedsBackend() bool { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	todo, code := resolveRef(ctx, sess, args, errOut)
	if code != exitcode.Success {
		return code
	}

	if te := sess.Dispatch(ctx, state.ToggleTodo{ID: todo.ID}); te != nil {
		return fail(errOut, te)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// resolveRef parses args as a todo reference and finds it in a fresh list.
func resolveRef(ctx context.Context, sess *Session, args []string, errOut io.Writer) (service.Todo, int) {
	ref, err := ParseTodoRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.Todo{}, exitcode.UserError
	}

	todos, code := fetchAll(ctx, sess, errOut)
	if code != exitcode.Success {
		return service.Todo{}, code
	}

	todo, err := ref.Resolve(todos)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.Todo{}, exitcode.UserError
	}
	return todo, exitcode.Success
}

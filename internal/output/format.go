// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"todo/internal/service"
	"todo/internal/todoerr"
)

// FormatTodo formats a todo line for the list.
// Format: "{N:>4}  [x] {TITLE}\n" (4-wide right-aligned number, two spaces,
// completion box, title)
func FormatTodo(w io.Writer, num int, todo service.Todo) {
	fmt.Fprintf(w, "%4d  %s %s\n", num, box(todo.Completed), normalizeTitle(todo.Title))
}

// FormatDetail prints every field of one todo.
func FormatDetail(w io.Writer, todo service.Todo) {
	done := "no"
	if todo.Completed {
		done = "yes"
	}
	fmt.Fprintf(w, "id:        %s\n", todo.ID)
	fmt.Fprintf(w, "title:     %s\n", normalizeTitle(todo.Title))
	fmt.Fprintf(w, "completed: %s\n", done)
}

// FormatError prints a domain error on one line.
func FormatError(w io.Writer, err *todoerr.Error) {
	fmt.Fprintf(w, "error: %s\n", oneLine(err.Message()))
}

func box(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// normalizeTitle normalizes a todo title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = oneLine(title)
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

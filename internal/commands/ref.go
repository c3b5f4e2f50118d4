package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"todo/internal/service"
)

// ErrRefRequired indicates no todo reference was provided.
var ErrRefRequired = errors.New("todo reference required")

// TodoRef is a parsed todo reference: either a 1-based position in the
// list as printed by ls, or a todo id.
type TodoRef struct {
	Num int // 1-based position; 0 when ID is set
	ID  string
}

// ParseTodoRef parses a todo reference from args.
//
// Parsing rules:
// 1. No args or a blank first arg → ErrRefRequired
// 2. All digits → position reference
// 3. Anything else → id reference
// Extra args are rejected so a title typed by mistake is not half-used.
func ParseTodoRef(args []string) (TodoRef, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return TodoRef{}, ErrRefRequired
	}
	if len(args) > 1 {
		return TodoRef{}, fmt.Errorf("unexpected argument: %s", args[1])
	}

	arg := strings.TrimSpace(args[0])
	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if err != nil {
			return TodoRef{}, fmt.Errorf("invalid todo reference: %s", arg)
		}
		return TodoRef{Num: num}, nil
	}
	return TodoRef{ID: arg}, nil
}

// Resolve finds the referenced todo in todos.
func (r TodoRef) Resolve(todos []service.Todo) (service.Todo, error) {
	if r.ID != "" {
		for _, t := range todos {
			if t.ID == r.ID {
				return t, nil
			}
		}
		return service.Todo{}, fmt.Errorf("todo not found: %s", r.ID)
	}
	if r.Num < 1 || r.Num > len(todos) {
		return service.Todo{}, fmt.Errorf("todo number out of range: %d", r.Num)
	}
	return todos[r.Num-1], nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

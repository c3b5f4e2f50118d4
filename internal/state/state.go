// Package state owns the UI-facing snapshot and the actions that change it.
package state

import (
	"slices"

	"todo/internal/service"
	"todo/internal/todoerr"
)

// State is an immutable snapshot. Todos is in display order and is never
// modified after the snapshot is published; every transition builds a new
// slice.
type State struct {
	Todos        []service.Todo
	NewTaskTitle string
	IsLoading    bool
	Err          *todoerr.Error
}

// Find returns the todo with the given id.
func (s State) Find(id string) (service.Todo, bool) {
	for _, t := range s.Todos {
		if t.ID == id {
			return t, true
		}
	}
	return service.Todo{}, false
}

func (s State) withTodos(todos []service.Todo) State {
	s.Todos = slices.Clone(todos)
	return s
}

func (s State) withAppended(t service.Todo) State {
	todos := make([]service.Todo, 0, len(s.Todos)+1)
	todos = append(todos, s.Todos...)
	s.Todos = append(todos, t)
	return s
}

func (s State) withReplaced(t service.Todo) State {
	todos := make([]service.Todo, len(s.Todos))
	for i, cur := range s.Todos {
		if cur.ID == t.ID {
			todos[i] = t
		} else {
			todos[i] = cur
		}
	}
	s.Todos = todos
	return s
}

func (s State) withRemoved(id string) State {
	todos := make([]service.Todo, 0, len(s.Todos))
	for _, cur := range s.Todos {
		if cur.ID != id {
			todos = append(todos, cur)
		}
	}
	s.Todos = todos
	return s
}

func (s State) withReversed() State {
	todos := slices.Clone(s.Todos)
	slices.Reverse(todos)
	s.Todos = todos
	return s
}

func (s State) withTitle(title string) State {
	s.NewTaskTitle = title
	return s
}

func (s State) withLoading(loading bool) State {
	s.IsLoading = loading
	return s
}

func (s State) withErr(err *todoerr.Error) State {
	s.Err = err
	return s
}

package state

import "todo/internal/service"

// Action is one of the intents the container accepts. The set is closed.
type Action interface {
	// Name identifies the action in logs.
	Name() string
	isAction()
}

// FetchTodos reloads the whole list.
type FetchTodos struct{}

// FetchTodoByID loads one todo and appends it to the list. The list is not
// de-duplicated, so fetching an id already shown lists it twice.
type FetchTodoByID struct{ ID string }

// AddTodo submits the pending input buffer as a new todo.
type AddTodo struct{}

// ToggleTodo flips the completion flag of a listed todo.
type ToggleTodo struct{ ID string }

// UpdateTodo submits a full record.
type UpdateTodo struct{ Todo service.Todo }

// DeleteTodo removes a todo.
type DeleteTodo struct{ ID string }

// SetNewTaskTitle updates the input buffer after the debounce window.
type SetNewTaskTitle struct{ Title string }

// ReorderTodos reverses the display order locally.
type ReorderTodos struct{}

// DismissError clears the current error.
type DismissError struct{}

func (FetchTodos) Name() string      { return "fetchTodos" }
func (FetchTodoByID) Name() string   { return "fetchTodoById" }
func (AddTodo) Name() string         { return "addTodo" }
func (ToggleTodo) Name() string      { return "toggleTodo" }
func (UpdateTodo) Name() string      { return "updateTodo" }
func (DeleteTodo) Name() string      { return "deleteTodo" }
func (SetNewTaskTitle) Name() string { return "setNewTaskTitle" }
func (ReorderTodos) Name() string    { return "reorderTodos" }
func (DismissError) Name() string    { return "dismissError" }

func (FetchTodos) isAction()      {}
func (FetchTodoByID) isAction()   {}
func (AddTodo) isAction()         {}
func (ToggleTodo) isAction()      {}
func (UpdateTodo) isAction()      {}
func (DeleteTodo) isAction()      {}
func (SetNewTaskTitle) isAction() {}
func (ReorderTodos) isAction()    {}
func (DismissError) isAction()    {}

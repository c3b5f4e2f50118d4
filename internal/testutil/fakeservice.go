// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"todo/internal/service"
)

// ErrNotFound is returned when a todo is not found.
var ErrNotFound = errors.New("not found")

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu    sync.RWMutex
	todos []service.Todo
	calls map[string]int
	seq   int

	// AssignIDs makes Create replace the draft ID with a server-style one
	// ("srv-1", "srv-2", ...).
	AssignIDs bool

	// Gate, when non-nil, is received from before every call returns.
	// Tests use it to hold operations in flight.
	Gate chan struct{}

	// Error injection for testing
	FetchAllErr error
	FetchOneErr error
	CreateErr   error
	UpdateErr   error
	DeleteErr   error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{calls: make(map[string]int)}
}

// AddTodo seeds a todo.
func (f *FakeService) AddTodo(id, title string, completed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.todos = append(f.todos, service.Todo{ID: id, Title: title, Completed: completed})
}

// RemoveTodo drops a todo behind the repository's back.
func (f *FakeService) RemoveTodo(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.indexLocked(id); i >= 0 {
		f.todos = append(f.todos[:i], f.todos[i+1:]...)
	}
}

// Todos returns a copy of the stored todos.
func (f *FakeService) Todos() []service.Todo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.Todo(nil), f.todos...)
}

// Calls returns how often the named method was invoked.
func (f *FakeService) Calls(method string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.calls[method]
}

// TotalCalls returns the number of invocations across all methods.
func (f *FakeService) TotalCalls() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *FakeService) enter(ctx context.Context, method string) error {
	f.mu.Lock()
	f.calls[method]++
	gate := f.Gate
	f.mu.Unlock()

	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FetchAll implements service.Service.
func (f *FakeService) FetchAll(ctx context.Context) ([]service.Todo, error) {
	if err := f.enter(ctx, "FetchAll"); err != nil {
		return nil, err
	}
	if f.FetchAllErr != nil {
		return nil, f.FetchAllErr
	}
	return f.Todos(), nil
}

// FetchOne implements service.Service.
func (f *FakeService) FetchOne(ctx context.Context, id string) (service.Todo, bool, error) {
	if err := f.enter(ctx, "FetchOne"); err != nil {
		return service.Todo{}, false, err
	}
	if f.FetchOneErr != nil {
		return service.Todo{}, false, f.FetchOneErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if i := f.indexLocked(id); i >= 0 {
		return f.todos[i], true, nil
	}
	return service.Todo{}, false, nil
}

// Create implements service.Service.
func (f *FakeService) Create(ctx context.Context, draft service.Todo) (service.Todo, error) {
	if err := f.enter(ctx, "Create"); err != nil {
		return service.Todo{}, err
	}
	if f.CreateErr != nil {
		return service.Todo{}, f.CreateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	created := service.Todo{ID: draft.ID, Title: draft.Title}
	if f.AssignIDs {
		f.seq++
		created.ID = fmt.Sprintf("srv-%d", f.seq)
	}
	f.todos = append(f.todos, created)
	return created, nil
}

// Update implements service.Service.
func (f *FakeService) Update(ctx context.Context, todo service.Todo) (service.Todo, error) {
	if err := f.enter(ctx, "Update"); err != nil {
		return service.Todo{}, err
	}
	if f.UpdateErr != nil {
		return service.Todo{}, f.UpdateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexLocked(todo.ID)
	if i < 0 {
		return service.Todo{}, ErrNotFound
	}
	f.todos[i] = todo
	return todo, nil
}

// Delete implements service.Service.
func (f *FakeService) Delete(ctx context.Context, id string) error {
	if err := f.enter(ctx, "Delete"); err != nil {
		return err
	}
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexLocked(id)
	if i < 0 {
		return ErrNotFound
	}
	f.todos = append(f.todos[:i], f.todos[i+1:]...)
	return nil
}

func (f *FakeService) indexLocked(id string) int {
	for i, t := range f.todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}

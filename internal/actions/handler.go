// Package actions adapts UI events into container actions.
package actions

import (
	"context"
	"log/slog"

	"todo/internal/logfields"
	"todo/internal/service"
	"todo/internal/state"
)

// Poster accepts actions without waiting for them to finish.
type Poster interface {
	Post(ctx context.Context, a state.Action) error
}

// Handler exposes fire-and-forget entry points. Calls return immediately;
// a pump goroutine started by Run forwards the intents in call order.
type Handler struct {
	target  Poster
	queue   chan state.Action
	stopped chan struct{}
	logger  *slog.Logger
}

// New creates a Handler with a queue of the given size.
func New(target Poster, buffer int, logger *slog.Logger) *Handler {
	if buffer < 1 {
		buffer = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		target:  target,
		queue:   make(chan state.Action, buffer),
		stopped: make(chan struct{}),
		logger:  logger,
	}
}

// Run forwards queued actions until ctx is canceled.
func (h *Handler) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case a := <-h.queue:
			if err := h.target.Post(ctx, a); err != nil {
				h.logger.Warn("Dropped action",
					logfields.Action(a.Name()),
					logfields.Error(err))
			}
		}
	}
}

func (h *Handler) ToggleTodo(id string) { h.send(state.ToggleTodo{ID: id}) }
func (h *Handler) DeleteTodo(id string) { h.send(state.DeleteTodo{ID: id}) }
func (h *Handler) FetchTodos()          { h.send(state.FetchTodos{}) }
func (h *Handler) FetchTodo(id string)  { h.send(state.FetchTodoByID{ID: id}) }
func (h *Handler) AddTodo()             { h.send(state.AddTodo{}) }
func (h *Handler) ReorderTodos()        { h.send(state.ReorderTodos{}) }
func (h *Handler) DismissError()        { h.send(state.DismissError{}) }

// UpdateTodo submits a full record.
func (h *Handler) UpdateTodo(t service.Todo) {
	h.send(state.UpdateTodo{Todo: t})
}

// SetNewTaskTitle feeds the debounced input buffer.
func (h *Handler) SetNewTaskTitle(title string) {
	h.send(state.SetNewTaskTitle{Title: title})
}

func (h *Handler) send(a state.Action) {
	select {
	case h.queue <- a:
	case <-h.stopped:
		h.logger.Debug("Handler stopped, action ignored", logfields.Action(a.Name()))
	}
}

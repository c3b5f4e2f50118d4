package actions_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/actions"
	"todo/internal/repository"
	"todo/internal/service"
	"todo/internal/state"
	"todo/internal/testutil"
)

type recordingPoster struct {
	mu     sync.Mutex
	posted []state.Action
	gate   chan struct{}
}

func (p *recordingPoster) Post(ctx context.Context, a state.Action) error {
	if p.gate != nil {
		select {
		case <-p.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	p.posted = append(p.posted, a)
	p.mu.Unlock()
	return nil
}

func (p *recordingPoster) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.posted))
	for _, a := range p.posted {
		out = append(out, a.Name())
	}
	return out
}

func startHandler(t *testing.T, target actions.Poster, buffer int) *actions.Handler {
	t.Helper()
	h := actions.New(target, buffer, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h
}

func TestHandler_ForwardsInCallOrder(t *testing.T) {
	p := &recordingPoster{}
	h := startHandler(t, p, 16)

	h.FetchTodos()
	h.FetchTodo("a")
	h.SetNewTaskTitle("x")
	h.AddTodo()
	h.ToggleTodo("a")
	h.UpdateTodo(service.Todo{ID: "a", Title: "A"})
	h.DeleteTodo("a")
	h.ReorderTodos()
	h.DismissError()

	want := []string{
		"fetchTodos", "fetchTodoById", "setNewTaskTitle", "addTodo", "toggleTodo",
		"updateTodo", "deleteTodo", "reorderTodos", "dismissError",
	}
	require.Eventually(t, func() bool { return len(p.names()) == len(want) }, time.Second, 5*time.Millisecond)
	assert.Equal(t, want, p.names())
}

func TestHandler_ReturnsBeforeActionCompletes(t *testing.T) {
	p := &recordingPoster{gate: make(chan struct{})}
	h := startHandler(t, p, 4)

	returned := make(chan struct{})
	go func() {
		h.ToggleTodo("a")
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("ToggleTodo blocked on the target")
	}
	assert.Empty(t, p.names())

	close(p.gate)
	require.Eventually(t, func() bool { return len(p.names()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestHandler_IgnoresCallsAfterStop(t *testing.T) {
	p := &recordingPoster{}
	h := actions.New(p, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Run(ctx)
	}()
	cancel()
	<-done

	// The queue has room for one; the rest must not block.
	finished := make(chan struct{})
	go func() {
		h.FetchTodos()
		h.FetchTodos()
		h.FetchTodos()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("calls after stop blocked")
	}
}

func TestHandler_DrivesContainer(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTodo("a", "A", false)
	clock := clockwork.NewFakeClock()
	c := state.New(repository.New(svc), state.WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		<-c.Done()
	})
	go func() { _ = c.Run(ctx) }()

	h := startHandler(t, c, 8)

	h.FetchTodos()
	require.Eventually(t, func() bool { return len(c.State().Todos) == 1 }, time.Second, 5*time.Millisecond)

	h.ToggleTodo("a")
	require.Eventually(t, func() bool {
		s := c.State()
		return len(s.Todos) == 1 && s.Todos[0].Completed
	}, time.Second, 5*time.Millisecond)

	h.SetNewTaskTitle("Walk dog")
	require.Eventually(t, func() bool {
		clock.Advance(state.DefaultDebounceWindow)
		return c.State().NewTaskTitle == "Walk dog"
	}, time.Second, 5*time.Millisecond)

	h.AddTodo()
	require.Eventually(t, func() bool { return len(c.State().Todos) == 2 }, time.Second, 5*time.Millisecond)
	s := c.State()
	assert.Equal(t, "Walk dog", s.Todos[1].Title)
	assert.Empty(t, s.NewTaskTitle)
}

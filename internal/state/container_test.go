package state_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/repository"
	"todo/internal/service"
	"todo/internal/state"
	"todo/internal/testutil"
	"todo/internal/todoerr"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
	quiet   = 100 * time.Millisecond
)

// lockedBuffer collects log output written from the loop goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type harness struct {
	t     *testing.T
	c     *state.Container
	svc   *testutil.FakeService
	repo  *repository.Repository
	clock *clockwork.FakeClock
	logs  *lockedBuffer

	mu     sync.Mutex
	states []state.State
}

func newHarness(t *testing.T, seed ...service.Todo) *harness {
	t.Helper()

	svc := testutil.NewFakeService()
	for _, s := range seed {
		svc.AddTodo(s.ID, s.Title, s.Completed)
	}
	repo := repository.New(svc)
	clock := clockwork.NewFakeClock()
	logs := &lockedBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelError}))

	var n int
	c := state.New(repo,
		state.WithClock(clock),
		state.WithLogger(logger),
		state.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("client-%d", n)
		}),
	)

	h := &harness{t: t, c: c, svc: svc, repo: repo, clock: clock, logs: logs}
	c.Subscribe(func(s state.State) {
		h.mu.Lock()
		h.states = append(h.states, s)
		h.mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-c.Done()
	})
	return h
}

func (h *harness) dispatch(a state.Action) {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(h.t, h.c.Dispatch(ctx, a))
}

func (h *harness) observed() []state.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]state.State(nil), h.states...)
}

func (h *harness) resetObserved() {
	h.mu.Lock()
	h.states = nil
	h.mu.Unlock()
}

func (h *harness) setTitle(title string) {
	h.t.Helper()
	h.dispatch(state.SetNewTaskTitle{Title: title})
	h.clock.Advance(state.DefaultDebounceWindow)
	require.Eventually(h.t, func() bool { return h.c.State().NewTaskTitle == title }, waitFor, tick)
}

func (h *harness) errorLogLines() int {
	return strings.Count(h.logs.String(), "level=ERROR")
}

func todoIDs(todos []service.Todo) []string {
	out := make([]string, 0, len(todos))
	for _, t := range todos {
		out = append(out, t.ID)
	}
	return out
}

var abc = []service.Todo{
	{ID: "a", Title: "A"},
	{ID: "b", Title: "B"},
	{ID: "c", Title: "C"},
}

func TestInitialState(t *testing.T) {
	h := newHarness(t)
	s := h.c.State()
	assert.Empty(t, s.Todos)
	assert.Empty(t, s.NewTaskTitle)
	assert.False(t, s.IsLoading)
	assert.Nil(t, s.Err)
}

func TestFetchTodos_Success(t *testing.T) {
	h := newHarness(t, abc...)

	h.dispatch(state.FetchTodos{})

	s := h.c.State()
	assert.Equal(t, []string{"a", "b", "c"}, todoIDs(s.Todos))
	assert.False(t, s.IsLoading)
	assert.Nil(t, s.Err)

	seen := h.observed()
	require.NotEmpty(t, seen)
	assert.True(t, seen[0].IsLoading, "loading flag should be published first")
}

func TestFetchTodos_FailureClearsLoading(t *testing.T) {
	h := newHarness(t)
	h.svc.FetchAllErr = errors.New("boom")

	h.dispatch(state.FetchTodos{})

	s := h.c.State()
	assert.False(t, s.IsLoading)
	require.NotNil(t, s.Err)
	assert.Equal(t, todoerr.Generic, s.Err.Kind)
	assert.Equal(t, "boom", s.Err.Message())
}

func TestFetchTodos_ClearsPreviousError(t *testing.T) {
	h := newHarness(t, abc...)
	h.svc.FetchAllErr = todoerr.NewFetchFailed("")
	h.dispatch(state.FetchTodos{})
	require.NotNil(t, h.c.State().Err)

	h.svc.FetchAllErr = nil
	h.dispatch(state.FetchTodos{})
	assert.Nil(t, h.c.State().Err)
}

func TestSetNewTaskTitle_Debounced(t *testing.T) {
	h := newHarness(t)

	h.dispatch(state.SetNewTaskTitle{Title: "a"})
	h.clock.Advance(100 * time.Millisecond)
	h.dispatch(state.SetNewTaskTitle{Title: "ab"})
	h.clock.Advance(100 * time.Millisecond)
	h.dispatch(state.SetNewTaskTitle{Title: "abc"})

	h.clock.Advance(state.DefaultDebounceWindow - time.Millisecond)
	require.Never(t, func() bool { return h.c.State().NewTaskTitle != "" }, quiet, tick)

	h.clock.Advance(time.Millisecond)
	require.Eventually(t, func() bool { return h.c.State().NewTaskTitle == "abc" }, waitFor, tick)

	for _, s := range h.observed() {
		assert.NotEqual(t, "a", s.NewTaskTitle)
		assert.NotEqual(t, "ab", s.NewTaskTitle)
	}
}

func TestAddTodo_EmptyTitleIsNoop(t *testing.T) {
	h := newHarness(t)

	h.dispatch(state.AddTodo{})

	assert.Zero(t, h.svc.TotalCalls())
	assert.Empty(t, h.observed())
}

func TestAddTodo_AppendsConfirmedTodo(t *testing.T) {
	h := newHarness(t, abc...)
	h.svc.AssignIDs = true
	h.dispatch(state.FetchTodos{})
	h.setTitle("Buy milk")

	h.dispatch(state.AddTodo{})

	s := h.c.State()
	require.Len(t, s.Todos, 4)
	added := s.Todos[3]
	assert.Equal(t, "srv-1", added.ID, "server-assigned id wins over the client id")
	assert.Equal(t, "Buy milk", added.Title)
	assert.False(t, added.Completed)
	assert.Empty(t, s.NewTaskTitle)
}

func TestAddTodo_FailureKeepsTitle(t *testing.T) {
	h := newHarness(t)
	h.svc.CreateErr = todoerr.NewAddFailed("")
	h.setTitle("Buy milk")

	h.dispatch(state.AddTodo{})

	s := h.c.State()
	assert.Empty(t, s.Todos)
	assert.Equal(t, "Buy milk", s.NewTaskTitle)
	require.NotNil(t, s.Err)
	assert.Equal(t, todoerr.AddFailed, s.Err.Kind)
}

func TestToggleTodo(t *testing.T) {
	h := newHarness(t, abc...)
	h.dispatch(state.FetchTodos{})

	h.dispatch(state.ToggleTodo{ID: "b"})

	s := h.c.State()
	require.Len(t, s.Todos, 3)
	assert.Equal(t, service.Todo{ID: "a", Title: "A"}, s.Todos[0])
	assert.Equal(t, service.Todo{ID: "b", Title: "B", Completed: true}, s.Todos[1])
	assert.Equal(t, service.Todo{ID: "c", Title: "C"}, s.Todos[2])
}

func TestToggleTodo_UnknownIDIsNoop(t *testing.T) {
	h := newHarness(t, abc...)
	h.dispatch(state.FetchTodos{})
	calls := h.svc.TotalCalls()
	h.resetObserved()

	h.dispatch(state.ToggleTodo{ID: "zzz"})

	assert.Equal(t, calls, h.svc.TotalCalls())
	assert.Empty(t, h.observed())
}

func TestUpdateTodo_ReplacesByID(t *testing.T) {
	h := newHarness(t, abc...)
	h.dispatch(state.FetchTodos{})

	h.dispatch(state.UpdateTodo{Todo: service.Todo{ID: "c", Title: "C2"}})

	s := h.c.State()
	assert.Equal(t, []string{"a", "b", "c"}, todoIDs(s.Todos))
	assert.Equal(t, "C2", s.Todos[2].Title)
}

func TestDeleteTodo(t *testing.T) {
	h := newHarness(t, abc...)
	h.dispatch(state.FetchTodos{})

	h.dispatch(state.DeleteTodo{ID: "b"})

	s := h.c.State()
	assert.Equal(t, []string{"a", "c"}, todoIDs(s.Todos))
}

func TestDeleteTodo_FailureKeepsEntry(t *testing.T) {
	h := newHarness(t, abc...)
	h.dispatch(state.FetchTodos{})
	h.svc.DeleteErr = todoerr.NewDeleteFailed("")

	h.dispatch(state.DeleteTodo{ID: "b"})

	s := h.c.State()
	assert.Equal(t, []string{"a", "b", "c"}, todoIDs(s.Todos))
	require.NotNil(t, s.Err)
	assert.Equal(t, todoerr.DeleteFailed, s.Err.Kind)
}

func TestReorderTodos(t *testing.T) {
	h := newHarness(t, abc...)
	h.dispatch(state.FetchTodos{})
	calls := h.svc.TotalCalls()

	h.dispatch(state.ReorderTodos{})

	assert.Equal(t, []string{"c", "b", "a"}, todoIDs(h.c.State().Todos))
	assert.Equal(t, calls, h.svc.TotalCalls())
}

func TestFetchTodoByID_AppendsWithoutDedup(t *testing.T) {
	h := newHarness(t, abc...)
	h.dispatch(state.FetchTodos{})
	h.setTitle("draft")

	h.dispatch(state.FetchTodoByID{ID: "a"})

	s := h.c.State()
	assert.Equal(t, []string{"a", "b", "c", "a"}, todoIDs(s.Todos))
	assert.Empty(t, s.NewTaskTitle)
	assert.False(t, s.IsLoading)
	assert.Zero(t, h.svc.Calls("FetchOne"), "cached todo must not hit the service")
}

func TestFetchTodoByID_FromService(t *testing.T) {
	h := newHarness(t, abc...)
	h.dispatch(state.FetchTodos{})
	h.svc.AddTodo("d", "D", true)

	h.dispatch(state.FetchTodoByID{ID: "d"})

	s := h.c.State()
	assert.Equal(t, []string{"a", "b", "c", "d"}, todoIDs(s.Todos))
	assert.Equal(t, 1, h.svc.Calls("FetchOne"))
}

func TestFetchTodoByID_NotFound(t *testing.T) {
	h := newHarness(t, abc...)
	h.dispatch(state.FetchTodos{})

	h.dispatch(state.FetchTodoByID{ID: "nope"})

	s := h.c.State()
	assert.Equal(t, []string{"a", "b", "c"}, todoIDs(s.Todos))
	assert.False(t, s.IsLoading)
	assert.Nil(t, s.Err)
}

func TestErrorAutoDismiss(t *testing.T) {
	h := newHarness(t, abc...)
	h.dispatch(state.FetchTodos{})
	h.svc.UpdateErr = todoerr.NewUpdateFailed("")

	h.dispatch(state.ToggleTodo{ID: "a"})
	require.NotNil(t, h.c.State().Err)

	h.clock.Advance(state.DefaultDismissDelay - time.Second)
	require.Never(t, func() bool { return h.c.State().Err == nil }, quiet, tick)

	h.clock.Advance(time.Second)
	require.Eventually(t, func() bool { return h.c.State().Err == nil }, waitFor, tick)
}

func TestErrorAutoDismiss_NewerErrorSurvives(t *testing.T) {
	h := newHarness(t, abc...)
	h.dispatch(state.FetchTodos{})

	h.svc.UpdateErr = todoerr.NewUpdateFailed("")
	h.dispatch(state.ToggleTodo{ID: "a"})

	h.clock.Advance(3 * time.Second)
	h.svc.DeleteErr = todoerr.NewDeleteFailed("")
	h.dispatch(state.DeleteTodo{ID: "b"})

	// First timer fires here; the error it set has been superseded.
	h.clock.Advance(2 * time.Second)
	require.Never(t, func() bool { return h.c.State().Err == nil }, quiet, tick)
	assert.Equal(t, todoerr.DeleteFailed, h.c.State().Err.Kind)

	// The newer error's own timer still clears it.
	h.clock.Advance(3 * time.Second)
	require.Eventually(t, func() bool { return h.c.State().Err == nil }, waitFor, tick)
}

func TestErrorAutoDismiss_ManualDismissThenNewError(t *testing.T) {
	h := newHarness(t, abc...)
	h.dispatch(state.FetchTodos{})

	h.svc.UpdateErr = todoerr.NewUpdateFailed("")
	h.dispatch(state.ToggleTodo{ID: "a"})
	h.dispatch(state.DismissError{})
	assert.Nil(t, h.c.State().Err)

	h.clock.Advance(2 * time.Second)
	h.svc.CreateErr = todoerr.NewAddFailed("")
	h.setTitle("x")
	h.dispatch(state.AddTodo{})
	require.NotNil(t, h.c.State().Err)

	h.clock.Advance(3 * time.Second)
	require.Never(t, func() bool { return h.c.State().Err == nil }, quiet, tick)
	assert.Equal(t, todoerr.AddFailed, h.c.State().Err.Kind)
}

func TestFetchFailedIsNotAutoDismissed(t *testing.T) {
	h := newHarness(t)
	h.svc.FetchAllErr = todoerr.NewFetchFailed("")

	h.dispatch(state.FetchTodos{})
	require.NotNil(t, h.c.State().Err)

	h.clock.Advance(10 * time.Second)
	require.Never(t, func() bool { return h.c.State().Err == nil }, quiet, tick)
	assert.Equal(t, todoerr.FetchFailed, h.c.State().Err.Kind)
}

func TestDismissError(t *testing.T) {
	h := newHarness(t)
	h.svc.FetchAllErr = todoerr.NewFetchFailed("")
	h.dispatch(state.FetchTodos{})
	require.NotNil(t, h.c.State().Err)

	h.dispatch(state.DismissError{})
	assert.Nil(t, h.c.State().Err)
}

func TestErrorLoggedOncePerTransition(t *testing.T) {
	h := newHarness(t, abc...)
	h.dispatch(state.FetchTodos{})
	require.Zero(t, h.errorLogLines())

	h.svc.UpdateErr = todoerr.NewUpdateFailed("")
	h.dispatch(state.ToggleTodo{ID: "a"})
	assert.Equal(t, 1, h.errorLogLines())
	assert.Contains(t, h.logs.String(), "Failed to update the todo.")

	// Another transition while the error is still shown is logged again.
	h.dispatch(state.ReorderTodos{})
	assert.Equal(t, 2, h.errorLogLines())

	h.dispatch(state.DismissError{})
	assert.Equal(t, 2, h.errorLogLines())
}

func TestCacheStreamReplacesTodos(t *testing.T) {
	h := newHarness(t, abc...)
	h.dispatch(state.FetchTodos{})

	_, err := h.repo.Create(context.Background(), service.Todo{ID: "z", Title: "Z"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(h.c.State().Todos) == 4
	}, waitFor, tick)
	assert.Equal(t, []string{"a", "b", "c", "z"}, todoIDs(h.c.State().Todos))
}

func TestObserversSeeWholeSnapshots(t *testing.T) {
	h := newHarness(t, abc...)
	h.dispatch(state.FetchTodos{})
	h.dispatch(state.ToggleTodo{ID: "a"})

	for _, s := range h.observed() {
		if s.IsLoading {
			continue
		}
		assert.Len(t, s.Todos, 3)
	}
}

func TestConcurrentDispatches(t *testing.T) {
	h := newHarness(t, abc...)
	h.dispatch(state.FetchTodos{})

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			h.dispatch(state.ToggleTodo{ID: id})
		}(id)
	}
	wg.Wait()

	for _, td := range h.c.State().Todos {
		assert.True(t, td.Completed, "todo %s", td.ID)
	}
}

func TestAwait(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()

	h.dispatch(state.SetNewTaskTitle{Title: "hello"})
	go h.clock.Advance(state.DefaultDebounceWindow)

	s, err := h.c.Await(ctx, func(s state.State) bool { return s.NewTaskTitle == "hello" })
	require.NoError(t, err)
	assert.Equal(t, "hello", s.NewTaskTitle)
}

func TestDispatchAfterStop(t *testing.T) {
	repo := repository.New(testutil.NewFakeService())
	c := state.New(repo)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = c.Run(ctx) }()
	cancel()
	<-c.Done()

	err := c.Dispatch(context.Background(), state.FetchTodos{})
	assert.ErrorIs(t, err, state.ErrStopped)
}

func TestRunTwice(t *testing.T) {
	h := newHarness(t)
	h.dispatch(state.DismissError{})
	assert.ErrorIs(t, h.c.Run(context.Background()), state.ErrAlreadyRunning)
}

// rawRepo fails every call with an error outside the domain taxonomy.
type rawRepo struct{}

var errRaw = errors.New("raw failure")

func (rawRepo) FetchAll(context.Context) ([]service.Todo, error) { return nil, errRaw }
func (rawRepo) FetchOne(context.Context, string) (service.Todo, bool, error) {
	return service.Todo{}, false, errRaw
}
func (rawRepo) Create(context.Context, service.Todo) (service.Todo, error) {
	return service.Todo{}, errRaw
}
func (rawRepo) Update(context.Context, service.Todo) (service.Todo, error) {
	return service.Todo{}, errRaw
}
func (rawRepo) Delete(context.Context, string) error  { return errRaw }
func (rawRepo) Subscribe(func([]service.Todo)) func() { return func() {} }

func TestNonDomainErrorIsCoerced(t *testing.T) {
	c := state.New(rawRepo{}, state.WithClock(clockwork.NewFakeClock()))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx) }()

	require.NoError(t, c.Dispatch(ctx, state.DeleteTodo{ID: "x"}))

	s := c.State()
	require.NotNil(t, s.Err)
	assert.Equal(t, todoerr.Generic, s.Err.Kind)
	assert.Equal(t, "raw failure", s.Err.Message())
}

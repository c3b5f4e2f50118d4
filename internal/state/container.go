package state

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"todo/internal/logfields"
	"todo/internal/metrics"
	"todo/internal/observe"
	"todo/internal/service"
	"todo/internal/todoerr"
)

const (
	// DefaultDebounceWindow is the quiet period before a title edit lands.
	DefaultDebounceWindow = 300 * time.Millisecond

	// DefaultDismissDelay is how long a non-fetch error stays visible.
	DefaultDismissDelay = 5 * time.Second

	workQueueSize = 64
)

var (
	// ErrStopped is returned when the container's loop is not running.
	ErrStopped = errors.New("state container stopped")

	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("state container already running")
)

// Repository is what the container needs from the caching layer.
type Repository interface {
	FetchAll(ctx context.Context) ([]service.Todo, error)
	FetchOne(ctx context.Context, id string) (service.Todo, bool, error)
	Create(ctx context.Context, draft service.Todo) (service.Todo, error)
	Update(ctx context.Context, todo service.Todo) (service.Todo, error)
	Delete(ctx context.Context, id string) error
	Subscribe(fn func([]service.Todo)) func()
}

// Container is the single owner of State.
//
// Run executes a loop goroutine; every State write, timer callback,
// cache-stream delivery and observer notification happens on it. Repository
// calls run on their own goroutines and hand their results back to the loop.
type Container struct {
	repo           Repository
	clock          clockwork.Clock
	logger         *slog.Logger
	rec            metrics.Recorder
	newID          func() string
	debounceWindow time.Duration
	dismissDelay   time.Duration

	work    chan func()
	done    chan struct{}
	running atomic.Bool

	current   atomic.Pointer[State]
	observers *observe.Registry[State]

	// Owned by the loop goroutine.
	state       State
	runCtx      context.Context
	titleGen    uint64
	debounce    clockwork.Timer
	inflight    int
	parked      []service.Todo
	hasParked   bool
	dismissTmrs map[clockwork.Timer]struct{}
}

// Option configures a Container.
type Option func(*Container)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(ct *Container) { ct.clock = c }
}

// WithLogger sets the logger used for the error log hook.
func WithLogger(l *slog.Logger) Option {
	return func(ct *Container) {
		if l != nil {
			ct.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(ct *Container) {
		if rec != nil {
			ct.rec = rec
		}
	}
}

// WithDebounceWindow overrides DefaultDebounceWindow.
func WithDebounceWindow(d time.Duration) Option {
	return func(ct *Container) {
		if d > 0 {
			ct.debounceWindow = d
		}
	}
}

// WithDismissDelay overrides DefaultDismissDelay.
func WithDismissDelay(d time.Duration) Option {
	return func(ct *Container) {
		if d > 0 {
			ct.dismissDelay = d
		}
	}
}

// WithIDGenerator sets how draft ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(ct *Container) {
		if fn != nil {
			ct.newID = fn
		}
	}
}

// WithInitialState seeds the first snapshot.
func WithInitialState(s State) Option {
	return func(ct *Container) { ct.state = s.withTodos(s.Todos) }
}

// New creates a container with an empty State. Call Run before dispatching.
func New(repo Repository, opts ...Option) *Container {
	c := &Container{
		repo:           repo,
		clock:          clockwork.NewRealClock(),
		logger:         slog.Default(),
		rec:            metrics.NoopRecorder{},
		newID:          service.NewID,
		debounceWindow: DefaultDebounceWindow,
		dismissDelay:   DefaultDismissDelay,
		work:           make(chan func(), workQueueSize),
		done:           make(chan struct{}),
		observers:      observe.New[State](),
		dismissTmrs:    make(map[clockwork.Timer]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	snap := c.state
	c.current.Store(&snap)
	return c
}

// Run executes the loop until ctx is canceled. Repository calls started by
// actions use ctx as well.
func (c *Container) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.done)

	c.runCtx = ctx
	unsubscribe := c.repo.Subscribe(func(todos []service.Todo) {
		todos = slices.Clone(todos)
		c.enqueue(func() { c.onCacheChanged(todos) })
	})
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			c.stopTimers()
			return nil
		case fn := <-c.work:
			fn()
		}
	}
}

// Done is closed once Run has returned.
func (c *Container) Done() <-chan struct{} {
	return c.done
}

// State returns the current snapshot. Safe from any goroutine.
func (c *Container) State() State {
	return *c.current.Load()
}

// Subscribe registers fn for every State replacement. fn runs on the loop
// goroutine and must not block or dispatch synchronously.
func (c *Container) Subscribe(fn func(State)) func() {
	return c.observers.Subscribe(fn)
}

// Await blocks until a snapshot satisfies pred.
func (c *Container) Await(ctx context.Context, pred func(State) bool) (State, error) {
	matched := make(chan State, 1)
	unsubscribe := c.Subscribe(func(s State) {
		if pred(s) {
			select {
			case matched <- s:
			default:
			}
		}
	})
	defer unsubscribe()

	if s := c.State(); pred(s) {
		return s, nil
	}
	select {
	case s := <-matched:
		return s, nil
	case <-ctx.Done():
		return c.State(), ctx.Err()
	case <-c.done:
		return c.State(), ErrStopped
	}
}

// Dispatch hands a to the loop and waits until the action's final State
// write has happened. Canceling ctx stops the wait, not the action.
func (c *Container) Dispatch(ctx context.Context, a Action) error {
	finished := make(chan struct{})
	var once atomic.Bool
	finish := func() {
		if once.CompareAndSwap(false, true) {
			close(finished)
		}
	}

	queued := c.enqueueCtx(ctx, func() {
		c.logger.Debug("Dispatching action", logfields.Action(a.Name()))
		c.handle(a, finish)
	})
	if !queued {
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
}

// Post queues a without waiting for its result. Actions posted from one
// goroutine reach the loop in the order they were posted.
func (c *Container) Post(ctx context.Context, a Action) error {
	queued := c.enqueueCtx(ctx, func() {
		c.logger.Debug("Dispatching action", logfields.Action(a.Name()))
		c.handle(a, func() {})
	})
	if !queued {
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrStopped
	}
	return nil
}

func (c *Container) handle(a Action, finish func()) {
	switch a := a.(type) {
	case FetchTodos:
		c.fetchTodos(finish)
	case FetchTodoByID:
		c.fetchTodoByID(a.ID, finish)
	case AddTodo:
		c.addTodo(finish)
	case ToggleTodo:
		c.toggleTodo(a.ID, finish)
	case UpdateTodo:
		c.updateTodo(a.Todo, finish)
	case DeleteTodo:
		c.deleteTodo(a.ID, finish)
	case SetNewTaskTitle:
		c.setNewTaskTitle(a.Title)
		finish()
	case ReorderTodos:
		c.set(c.state.withReversed())
		finish()
	case DismissError:
		c.set(c.state.withErr(nil))
		finish()
	default:
		finish()
	}
}

func (c *Container) fetchTodos(finish func()) {
	c.set(c.state.withLoading(true).withErr(nil))
	c.async(finish, func(ctx context.Context) func() {
		todos, err := c.repo.FetchAll(ctx)
		return func() {
			if err != nil {
				c.handleError(err)
				return
			}
			c.set(c.state.withTodos(todos).withLoading(false))
		}
	})
}

func (c *Container) fetchTodoByID(id string, finish func()) {
	c.set(c.state.withLoading(true).withErr(nil))
	c.async(finish, func(ctx context.Context) func() {
		todo, found, err := c.repo.FetchOne(ctx, id)
		return func() {
			if err != nil {
				c.handleError(err)
				return
			}
			if !found {
				c.set(c.state.withLoading(false))
				return
			}
			c.set(c.state.withAppended(todo).withTitle("").withLoading(false))
		}
	})
}

func (c *Container) addTodo(finish func()) {
	title := c.state.NewTaskTitle
	if title == "" {
		finish()
		return
	}

	draft := service.Todo{ID: c.newID(), Title: title}
	c.async(finish, func(ctx context.Context) func() {
		created, err := c.repo.Create(ctx, draft)
		return func() {
			if err != nil {
				c.handleError(err)
				return
			}
			c.set(c.state.withAppended(created).withTitle(""))
		}
	})
}

func (c *Container) toggleTodo(id string, finish func()) {
	todo, ok := c.state.Find(id)
	if !ok {
		finish()
		return
	}
	c.submitUpdate(todo.Toggled(), finish)
}

func (c *Container) updateTodo(todo service.Todo, finish func()) {
	c.submitUpdate(todo, finish)
}

func (c *Container) submitUpdate(todo service.Todo, finish func()) {
	c.async(finish, func(ctx context.Context) func() {
		updated, err := c.repo.Update(ctx, todo)
		return func() {
			if err != nil {
				c.handleError(err)
				return
			}
			c.set(c.state.withReplaced(updated))
		}
	})
}

func (c *Container) deleteTodo(id string, finish func()) {
	c.async(finish, func(ctx context.Context) func() {
		err := c.repo.Delete(ctx, id)
		return func() {
			if err != nil {
				c.handleError(err)
				return
			}
			c.set(c.state.withRemoved(id))
		}
	})
}

// setNewTaskTitle restarts the debounce window. Only the value present
// when the window closes reaches State.
func (c *Container) setNewTaskTitle(title string) {
	c.titleGen++
	gen := c.titleGen
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.debounce = c.clock.AfterFunc(c.debounceWindow, func() {
		c.enqueue(func() {
			if gen != c.titleGen {
				return
			}
			c.debounce = nil
			c.set(c.state.withTitle(title))
		})
	})
}

// handleError puts err into State and, unless it is a fetch failure,
// schedules its removal. The timer only clears an error equal to the one
// set here, so a newer error or a manual dismissal survives it.
func (c *Container) handleError(err error) {
	te, ok := todoerr.As(err)
	if !ok {
		te = todoerr.NewGeneric(err.Error())
	}
	c.rec.IncErrorShown(te.Kind.String())
	c.set(c.state.withErr(te).withLoading(false))

	if te.Kind == todoerr.FetchFailed {
		return
	}

	var tmr clockwork.Timer
	tmr = c.clock.AfterFunc(c.dismissDelay, func() {
		c.enqueue(func() {
			delete(c.dismissTmrs, tmr)
			if c.state.Err.Equal(te) {
				c.set(c.state.withErr(nil))
			}
		})
	})
	c.dismissTmrs[tmr] = struct{}{}
}

// onCacheChanged replaces the displayed list with the repository's cache.
// Emissions that arrive while repository calls are in flight are held back
// until the last of those calls has written its own result.
func (c *Container) onCacheChanged(todos []service.Todo) {
	if c.inflight > 0 {
		c.parked = todos
		c.hasParked = true
		return
	}
	c.set(c.state.withTodos(todos))
}

// async runs body off the loop and executes the func it returns back on
// the loop, followed by finish.
func (c *Container) async(finish func(), body func(ctx context.Context) func()) {
	c.inflight++
	ctx := c.runCtx
	go func() {
		tail := body(ctx)
		queued := c.enqueue(func() {
			tail()
			c.inflight--
			if c.inflight == 0 && c.hasParked {
				todos := c.parked
				c.parked, c.hasParked = nil, false
				c.set(c.state.withTodos(todos))
			}
			finish()
		})
		if !queued {
			finish()
		}
	}()
}

// set publishes s as the current State. Every published State carrying an
// error is logged exactly once.
func (c *Container) set(s State) {
	c.state = s
	snap := s
	c.current.Store(&snap)

	if s.Err != nil {
		c.logger.Error(s.Err.Message(), logfields.ErrorKind(s.Err.Kind.String()))
	}
	c.observers.Emit(s)
}

func (c *Container) enqueue(fn func()) bool {
	select {
	case c.work <- fn:
		return true
	case <-c.done:
		return false
	}
}

func (c *Container) enqueueCtx(ctx context.Context, fn func()) bool {
	select {
	case c.work <- fn:
		return true
	case <-c.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (c *Container) stopTimers() {
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
	for tmr := range c.dismissTmrs {
		tmr.Stop()
	}
	clear(c.dismissTmrs)
}

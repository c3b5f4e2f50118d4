// Package repository caches todos in front of a service.Service and
// translates backend failures into todoerr values.
package repository

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"todo/internal/logfields"
	"todo/internal/metrics"
	"todo/internal/observe"
	"todo/internal/service"
)

// Operation names used for metrics and logs.
const (
	OpFetchAll = "fetch_all"
	OpFetchOne = "fetch_one"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
)

// Repository owns the authoritative in-memory cache.
//
// The cache holds exactly the server-confirmed value for every id it knows.
// Subscribers receive the full cache contents after every mutation, in
// insertion order (fetch order first, then creation order).
type Repository struct {
	svc    service.Service
	rec    metrics.Recorder
	logger *slog.Logger

	// emitMu keeps emissions in mutation order.
	emitMu sync.Mutex
	mu     sync.RWMutex
	cache  map[string]service.Todo
	order  []string

	subs *observe.Registry[[]service.Todo]
}

// Option configures a Repository.
type Option func(*Repository)

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Repository) {
		if rec != nil {
			r.rec = rec
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Repository backed by svc with an empty cache.
func New(svc service.Service, opts ...Option) *Repository {
	r := &Repository{
		svc:    svc,
		rec:    metrics.NoopRecorder{},
		logger: slog.Default(),
		cache:  make(map[string]service.Todo),
		subs:   observe.New[[]service.Todo](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers fn to receive the cache contents after every
// mutation. fn runs on the goroutine that performed the mutation and must
// not block.
func (r *Repository) Subscribe(fn func([]service.Todo)) func() {
	return r.subs.Subscribe(fn)
}

// Snapshot returns the current cache contents in insertion order.
func (r *Repository) Snapshot() []service.Todo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked()
}

// FetchAll replaces the whole cache with the backend's todos.
// Entries absent from the result are dropped.
func (r *Repository) FetchAll(ctx context.Context) ([]service.Todo, error) {
	start := time.Now()
	todos, err := r.svc.FetchAll(ctx)
	r.observe(OpFetchAll, start, err)
	if err != nil {
		return nil, translate(err)
	}

	r.mutate(func() {
		r.cache = make(map[string]service.Todo, len(todos))
		r.order = r.order[:0]
		for _, t := range todos {
			r.putLocked(t)
		}
	})
	return append([]service.Todo(nil), todos...), nil
}

// FetchOne returns the cached todo for id without touching the backend when
// present. Otherwise it asks the backend and caches a found result.
func (r *Repository) FetchOne(ctx context.Context, id string) (service.Todo, bool, error) {
	r.mu.RLock()
	cached, ok := r.cache[id]
	r.mu.RUnlock()
	if ok {
		r.rec.IncCacheHit()
		return cached, true, nil
	}

	start := time.Now()
	t, found, err := r.svc.FetchOne(ctx, id)
	r.observe(OpFetchOne, start, err)
	if err != nil {
		return service.Todo{}, false, translate(err)
	}
	if !found {
		return service.Todo{}, false, nil
	}

	r.mutate(func() { r.putLocked(t) })
	return t, true, nil
}

// Create submits draft and caches the confirmed todo under the id the
// backend assigned.
func (r *Repository) Create(ctx context.Context, draft service.Todo) (service.Todo, error) {
	start := time.Now()
	created, err := r.svc.Create(ctx, draft)
	r.observe(OpCreate, start, err)
	if err != nil {
		return service.Todo{}, translate(err)
	}

	r.mutate(func() { r.putLocked(created) })
	return created, nil
}

// Update submits todo and overwrites the cache entry with the confirmed
// value.
func (r *Repository) Update(ctx context.Context, todo service.Todo) (service.Todo, error) {
	start := time.Now()
	updated, err := r.svc.Update(ctx, todo)
	r.observe(OpUpdate, start, err)
	if err != nil {
		return service.Todo{}, translate(err)
	}

	r.mutate(func() { r.putLocked(updated) })
	return updated, nil
}

// Delete removes id from the backend, then from the cache.
func (r *Repository) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := r.svc.Delete(ctx, id)
	r.observe(OpDelete, start, err)
	if err != nil {
		return translate(err)
	}

	r.mutate(func() { r.removeLocked(id) })
	return nil
}

// mutate applies fn under the cache lock and then notifies subscribers
// with the resulting contents.
func (r *Repository) mutate(fn func()) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.Lock()
	fn()
	list := r.listLocked()
	r.mu.Unlock()

	r.rec.SetCacheSize(len(list))
	r.subs.Emit(list)
}

func (r *Repository) putLocked(t service.Todo) {
	if _, exists := r.cache[t.ID]; !exists {
		r.order = append(r.order, t.ID)
	}
	r.cache[t.ID] = t
}

func (r *Repository) removeLocked(id string) {
	if _, exists := r.cache[id]; !exists {
		return
	}
	delete(r.cache, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Repository) listLocked() []service.Todo {
	list := make([]service.Todo, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, r.cache[id])
	}
	return list
}

func (r *Repository) observe(op string, start time.Time, err error) {
	d := time.Since(start)
	r.rec.ObserveOp(op, d, err == nil)
	if err != nil {
		r.logger.Debug("Backend operation failed",
			logfields.Op(op),
			logfields.Duration(d),
			logfields.Error(err))
	}
}

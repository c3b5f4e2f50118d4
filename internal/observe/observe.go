// Package observe provides callback registration with unsubscribe handles.
package observe

import (
	"sync"
	"sync/atomic"
)

// Registry fans a value out to registered callbacks.
//
// Emit calls callbacks synchronously on the caller's goroutine, in
// registration order. Callbacks must not block.
type Registry[T any] struct {
	mu     sync.RWMutex
	subs   map[uint64]func(T)
	order  []uint64
	nextID atomic.Uint64
}

// New returns an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{subs: make(map[uint64]func(T))}
}

// Subscribe registers fn and returns a func that removes it.
// The returned func is safe to call more than once.
func (r *Registry[T]) Subscribe(fn func(T)) func() {
	id := r.nextID.Add(1)

	r.mu.Lock()
	r.subs[id] = fn
	r.order = append(r.order, id)
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.subs, id)
			for i, v := range r.order {
				if v == id {
					r.order = append(r.order[:i], r.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Emit delivers v to every current subscriber.
func (r *Registry[T]) Emit(v T) {
	r.mu.RLock()
	fns := make([]func(T), 0, len(r.order))
	for _, id := range r.order {
		fns = append(fns, r.subs[id])
	}
	r.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of active subscribers.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

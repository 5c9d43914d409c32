// Package engage tracks the single element holding interaction focus.
package engage

import "sync"

// Handler is notified when an element gains or loses focus.
type Handler[T comparable] func(x T, engaged bool)

// Registry holds at most one engaged element. Engaging a new element
// disengages the previous holder within the same call.
//
// Changes and their notifications are serialized, so a handler always sees
// the previous holder disengaged before the next one engages. A handler may
// call Current and IsEngaged but must not change the registry.
type Registry[T comparable] struct {
	// change is held from a state change until its notifications return.
	change  sync.Mutex
	mu      sync.Mutex
	holder  T
	has     bool
	handler Handler[T]
}

// New creates a registry. handler may be nil.
func New[T comparable](handler Handler[T]) *Registry[T] {
	return &Registry[T]{handler: handler}
}

// Engage makes x the holder and returns the displaced element, if any.
func (r *Registry[T]) Engage(x T) (prev T, displaced bool) {
	r.change.Lock()
	defer r.change.Unlock()
	r.mu.Lock()
	if r.has && r.holder == x {
		r.mu.Unlock()
		return prev, false
	}
	prev, displaced = r.holder, r.has
	r.holder, r.has = x, true
	r.mu.Unlock()

	if displaced {
		r.notify(prev, false)
	}
	r.notify(x, true)
	return prev, displaced
}

// Release clears the holder only when it is x.
func (r *Registry[T]) Release(x T) bool {
	r.change.Lock()
	defer r.change.Unlock()
	r.mu.Lock()
	if !r.has || r.holder != x {
		r.mu.Unlock()
		return false
	}
	var zero T
	r.holder, r.has = zero, false
	r.mu.Unlock()

	r.notify(x, false)
	return true
}

// Reset disengages whatever is engaged.
func (r *Registry[T]) Reset() {
	r.change.Lock()
	defer r.change.Unlock()
	r.mu.Lock()
	prev, had := r.holder, r.has
	var zero T
	r.holder, r.has = zero, false
	r.mu.Unlock()

	if had {
		r.notify(prev, false)
	}
}

// Current returns the holder.
func (r *Registry[T]) Current() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.holder, r.has
}

// IsEngaged reports whether x is the holder.
func (r *Registry[T]) IsEngaged(x T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.has && r.holder == x
}

func (r *Registry[T]) notify(x T, engaged bool) {
	if r.handler != nil {
		r.handler(x, engaged)
	}
}

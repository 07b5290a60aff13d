package event

import (
	"sync"
	"sync/atomic"
)

// Registry holds the listeners of a stream or orchestrator.
//
// Notify iterates over an immutable snapshot, so listeners may be added or removed
// concurrently, including from inside OnEvent; changes take effect from the next
// event. The registry stores plain references and never closes or releases a
// listener: removing it is the owner's responsibility.
type Registry struct {
	mu        sync.Mutex
	listeners atomic.Pointer[[]Listener]
	// OnPanic, when set, receives the value recovered from a panicking listener.
	OnPanic func(l Listener, recovered any)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers l. It returns false when l is nil, not comparable, or already
// registered.
func (r *Registry) Add(l Listener) (added bool) {
	if l == nil {
		return false
	}

	defer func() {
		// comparing an uncomparable dynamic type panics
		if recover() != nil {
			added = false
		}
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.snapshot()
	for _, existing := range current {
		if existing == l {
			return false
		}
	}

	next := make([]Listener, len(current), len(current)+1)
	copy(next, current)
	next = append(next, l)
	r.listeners.Store(&next)

	return true
}

// Remove unregisters l. It returns false when l was not registered.
func (r *Registry) Remove(l Listener) (removed bool) {
	if l == nil {
		return false
	}

	defer func() {
		if recover() != nil {
			removed = false
		}
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.snapshot()
	for i, existing := range current {
		if existing != l {
			continue
		}

		next := make([]Listener, 0, len(current)-1)
		next = append(next, current[:i]...)
		next = append(next, current[i+1:]...)
		r.listeners.Store(&next)

		return true
	}

	return false
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	return len(r.snapshot())
}

// Notify delivers e to every listener in registration order. A panicking listener
// is skipped and the remaining listeners still receive the event.
func (r *Registry) Notify(e Event) {
	if r == nil {
		return
	}

	for _, l := range r.snapshot() {
		r.deliver(l, e)
	}
}

func (r *Registry) deliver(l Listener, e Event) {
	defer func() {
		if rec := recover(); rec != nil && r.OnPanic != nil {
			r.OnPanic(l, rec)
		}
	}()

	l.OnEvent(e)
}

func (r *Registry) snapshot() []Listener {
	p := r.listeners.Load()
	if p == nil {
		return nil
	}

	return *p
}

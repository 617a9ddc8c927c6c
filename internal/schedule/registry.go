// Package schedule bounds per-frame pipeline work across all live signals.
//
// The registry replaces the ambient per-signal maps of a naive design with
// explicit ownership: streams are created when a signal is added to the
// view and destroyed when it is removed. The frame scheduler apportions the
// per-frame time budget over the registered streams.
package schedule

import (
	"fmt"
	"sync"
)

// Pumper is the per-signal work unit the scheduler drives.
// *stream.Stream implements it; tests substitute fakes.
type Pumper interface {
	// Pump performs incremental work, consulting keepGoing between
	// chunks, and reports whether work remains.
	Pump(keepGoing func() bool) (more bool, err error)
}

// Closer is implemented by pumpers owning device resources.
type Closer interface {
	Close()
}

// Registry maps stable signal IDs to their pumpers, preserving insertion
// order for deterministic frame iteration.
type Registry struct {
	mu    sync.Mutex
	order []string
	items map[string]Pumper
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Pumper)}
}

// Add registers a pumper under id. Duplicate IDs are a configuration error.
func (r *Registry) Add(id string, p Pumper) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; ok {
		return fmt.Errorf("schedule: signal %q already registered", id)
	}
	r.items[id] = p
	r.order = append(r.order, id)
	return nil
}

// Remove unregisters and closes the pumper for id, if present.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		return
	}
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if c, ok := p.(Closer); ok {
		c.Close()
	}
}

// Get returns the pumper for id.
func (r *Registry) Get(id string) (Pumper, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	return p, ok
}

// IDs returns the registered IDs in insertion order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered signals.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

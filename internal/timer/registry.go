package timer

import "sync"

// Registry tracks the engine bound to the visible timer view. Only one
// engine is live at a time; mounting a new container detaches the old one.
type Registry struct {
	mu        sync.Mutex
	container string
	active    *Engine
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Mount returns the engine for container, building one when the container
// changed. Mounting the same container again is a no-op.
func (r *Registry) Mount(container string, build func() (*Engine, error)) (*Engine, error) {
	r.mu.Lock()
	if r.active != nil && r.container == container {
		e := r.active
		r.mu.Unlock()
		return e, nil
	}
	r.mu.Unlock()

	r.CancelActive()

	e, err := build()
	if err != nil {
		return nil, err
	}
	r.RegisterActive(container, e)
	return e, nil
}

// RegisterActive makes e the live engine, detaching any other.
func (r *Registry) RegisterActive(container string, e *Engine) {
	r.mu.Lock()
	stale := r.active
	r.active = e
	r.container = container
	r.mu.Unlock()

	if stale != nil && stale != e {
		stale.Detach()
	}
}

// CancelActive detaches the live engine, if any.
func (r *Registry) CancelActive() {
	r.mu.Lock()
	stale := r.active
	r.active = nil
	r.container = ""
	r.mu.Unlock()

	if stale != nil {
		stale.Detach()
	}
}

// Active returns the live engine or nil.
func (r *Registry) Active() *Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

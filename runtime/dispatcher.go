package runtime

import "sync"

// Dispatcher is the engine's single logical execution context. Every
// mutation of the render tree runs under it, so renders, event dispatches
// and parameter pushes are serialized exactly as a UI-thread dispatcher
// would serialize them. Callers on other goroutines block until their work
// has run to completion, which is what gives test code its synchronous view
// of an internally batched engine.
//
// The dispatcher is not re-entrant: work running on the context must not
// call Invoke again. Engine-internal code that is already on the context
// calls the unlocked variants instead.
type Dispatcher struct {
	mu sync.Mutex
}

// NewDispatcher creates a dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Invoke runs fn on the execution context and blocks until it returns.
func (d *Dispatcher) Invoke(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

// InvokeErr runs fn on the execution context and returns its error. The
// context is released before the error propagates to the caller.
func (d *Dispatcher) InvokeErr(fn func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn()
}

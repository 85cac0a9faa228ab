package harness

import (
	"sync"

	"github.com/vcrobe/nojs-testing/rendertree"
)

// ComponentRegistry records every component instance activated during a
// test session. Pure in-memory bookkeeping: membership only, no metadata,
// no failure conditions.
type ComponentRegistry struct {
	mu         sync.Mutex
	components map[rendertree.Component]struct{}
	order      []rendertree.Component
}

// NewComponentRegistry creates an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{components: make(map[rendertree.Component]struct{})}
}

// Register adds the component to the set. Registering the same instance
// twice is a no-op.
func (r *ComponentRegistry) Register(component rendertree.Component) {
	if component == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.components[component]; ok {
		return
	}
	r.components[component] = struct{}{}
	r.order = append(r.order, component)
}

// AllComponents returns a snapshot of the registered components in
// registration order.
func (r *ComponentRegistry) AllComponents() []rendertree.Component {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]rendertree.Component(nil), r.order...)
}

// Clear empties the set. Called at test-context teardown.
func (r *ComponentRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components = make(map[rendertree.Component]struct{})
	r.order = nil
}

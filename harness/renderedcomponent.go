package harness

import (
	"github.com/vcrobe/nojs-testing/rendertree"
)

// RenderedComponent is the typed wrapper variant: it tracks one concrete
// component instance and exposes it to test code alongside the fragment
// surface it embeds.
type RenderedComponent[T rendertree.Component] struct {
	*RenderedFragment

	// containerID is the synthetic root the component was mounted under,
	// zero when the wrapper came from a tree search. Only container-mounted
	// wrappers can rebind: the container is where the engine can replace
	// the materialized instance.
	containerID int
	instance    T
	rebound     bool
}

func newRenderedComponent[T rendertree.Component](tr *TestRenderer, componentID, containerID int, instance T) *RenderedComponent[T] {
	return &RenderedComponent[T]{
		RenderedFragment: newRenderedFragment(tr, componentID),
		containerID:      containerID,
		instance:         instance,
	}
}

// Instance returns the live component instance, giving typed access to its
// public state.
func (w *RenderedComponent[T]) Instance() T {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.instance
}

// tryRebind follows the component to its replacement: when the wrapper's
// current id was disposed but the container now holds a different instance
// of the same type, the wrapper adopts the new id and instance. Allowed at
// most once per wrapper lifetime; afterwards a disposal is final.
func (w *RenderedComponent[T]) tryRebind(e *RenderEvent) (int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.disposed || w.rebound || w.containerID == 0 {
		return 0, false
	}
	oldID := w.componentID
	newID, instance, ok := resolveComponent[T](e.frames, w.containerID)
	if !ok || newID == oldID {
		return 0, false
	}
	w.rebound = true
	w.componentID = newID
	w.instance = instance
	w.tree = nil
	return newID, true
}

// resolveComponent finds the first component of type T reachable from
// rootID, depth-first in document order.
func resolveComponent[T rendertree.Component](frames rendertree.FrameSource, rootID int) (int, T, bool) {
	var zero T
	var walk func(id int) (int, T, bool)
	walk = func(id int) (int, T, bool) {
		for _, cf := range rendertree.ComponentFrames(frames.CurrentFrames(id)) {
			if instance, ok := cf.Component.(T); ok {
				return cf.ComponentID, instance, true
			}
			if foundID, instance, ok := walk(cf.ComponentID); ok {
				return foundID, instance, ok
			}
		}
		return 0, zero, false
	}
	return walk(rootID)
}

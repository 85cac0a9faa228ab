package harness

import (
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/vcrobe/nojs-testing/runtime"
)

// renderedHandle is the renderer-side view of a wrapper: what the event
// application loop needs, independent of the wrapper's type parameter.
type renderedHandle interface {
	ComponentID() int

	// applyRenderEvent invalidates the wrapper's node tree and notifies
	// subscribers. Called once per applied event that affects the wrapper.
	applyRenderEvent(e *RenderEvent)

	// tryRebind gives the wrapper a chance to follow its component to a new
	// id when the old one was disposed in this event (the engine replaced
	// the instance under the same root). Returns the new id when the
	// wrapper rebound; a wrapper may rebind at most once in its lifetime.
	tryRebind(e *RenderEvent) (int, bool)

	// notifyDisposed marks the wrapper dead and releases its node tree.
	notifyDisposed()
}

// RenderedFragment is the test-facing handle for an anonymous render root.
// It owns the most recent node tree materialized for its component id and
// rebuilds it lazily after qualifying render events. The tree object is
// stable between qualifying events: two Nodes calls with no event in
// between return the same snapshot.
type RenderedFragment struct {
	tr *TestRenderer

	mu          sync.Mutex
	componentID int
	tree        *NodeTree
	renderCount int
	disposed    bool
	signal      chan struct{}
	listeners   map[int]func()
	nextListen  int
}

func newRenderedFragment(tr *TestRenderer, componentID int) *RenderedFragment {
	return &RenderedFragment{
		tr:          tr,
		componentID: componentID,
		signal:      make(chan struct{}, 1),
		listeners:   make(map[int]func()),
	}
}

// ComponentID returns the wrapper's current component id. The id can change
// at most once in the wrapper's lifetime, when the engine replaces the
// underlying instance and the wrapper rebinds.
func (w *RenderedFragment) ComponentID() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.componentID
}

// Nodes returns the materialized node tree, rebuilding it if a render event
// invalidated the previous snapshot.
func (w *RenderedFragment) Nodes() ([]*html.Node, error) {
	t, err := w.snapshot()
	if err != nil {
		return nil, err
	}
	return t.Nodes(), nil
}

// Markup returns the materialized markup string.
func (w *RenderedFragment) Markup() (string, error) {
	t, err := w.snapshot()
	if err != nil {
		return "", err
	}
	return t.Markup(), nil
}

// Find returns the elements matching the CSS selector, failing when nothing
// matches.
func (w *RenderedFragment) Find(selector string) (*goquery.Selection, error) {
	t, err := w.snapshot()
	if err != nil {
		return nil, err
	}
	sel := t.Selection().Find(selector)
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrElementNotFound, selector)
	}
	return sel, nil
}

// FindAll returns the elements matching the CSS selector, possibly empty.
func (w *RenderedFragment) FindAll(selector string) (*goquery.Selection, error) {
	t, err := w.snapshot()
	if err != nil {
		return nil, err
	}
	return t.Selection().Find(selector), nil
}

// snapshot returns the current tree, materializing when stale.
func (w *RenderedFragment) snapshot() (*NodeTree, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.disposed {
		return nil, fmt.Errorf("rendered component %d: %w", w.componentID, ErrDisposed)
	}
	if w.tree == nil {
		t, err := w.tr.materializer.Materialize(w.componentID)
		if err != nil {
			return nil, err
		}
		w.tree = t
	}
	return w.tree, nil
}

// Render re-renders the component without changing its parameters.
func (w *RenderedFragment) Render() error {
	return w.tr.SetDirectParameters(w, runtime.ParameterView{})
}

// SetParametersAndRender pushes new parameters into the component and
// re-renders it.
func (w *RenderedFragment) SetParametersAndRender(params runtime.ParameterView) error {
	return w.tr.SetDirectParameters(w, params)
}

// RenderCount returns how many applied render events have affected this
// wrapper.
func (w *RenderedFragment) RenderCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.renderCount
}

// OnRender subscribes fn to the wrapper's render-occurred notifications.
// fn runs once per applied render event affecting this component, on the
// goroutine applying the event. The returned function unsubscribes.
func (w *RenderedFragment) OnRender(fn func()) (unsubscribe func()) {
	w.mu.Lock()
	id := w.nextListen
	w.nextListen++
	w.listeners[id] = fn
	w.mu.Unlock()
	return func() {
		w.mu.Lock()
		delete(w.listeners, id)
		w.mu.Unlock()
	}
}

// RenderSignal returns a coalescing channel that receives after each
// applied render event affecting this component. Helpers like WaitForState
// select on it.
func (w *RenderedFragment) RenderSignal() <-chan struct{} {
	return w.signal
}

// Dispose releases the node tree and drops all subscriptions. The wrapper
// is unusable afterwards.
func (w *RenderedFragment) Dispose() {
	w.notifyDisposed()
}

func (w *RenderedFragment) applyRenderEvent(_ *RenderEvent) {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}
	w.tree = nil
	w.renderCount++
	fns := make([]func(), 0, len(w.listeners))
	for _, fn := range w.listeners {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	select {
	case w.signal <- struct{}{}:
	default:
	}
	for _, fn := range fns {
		fn()
	}
}

// tryRebind on a fragment wrapper always declines: an anonymous root keeps
// the root container's id for its whole lifetime.
func (w *RenderedFragment) tryRebind(_ *RenderEvent) (int, bool) {
	return 0, false
}

func (w *RenderedFragment) notifyDisposed() {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}
	w.disposed = true
	w.tree = nil
	w.listeners = map[int]func(){}
	w.mu.Unlock()

	select {
	case w.signal <- struct{}{}:
	default:
	}
}

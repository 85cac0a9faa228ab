package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"

	"github.com/vcrobe/nojs-testing/rendertree"
	"github.com/vcrobe/nojs-testing/runtime"
)

// rootContainer is the synthetic top-level attachment point created per
// render call. It renders the caller's fragment; the component under test
// mounts as its child.
type rootContainer struct {
	fragment rendertree.RenderFragment
}

func (c *rootContainer) Render(b *rendertree.Builder) {
	if c.fragment != nil {
		c.fragment(b)
	}
}

// TestRenderer drives the engine renderer from test code. It intercepts
// render batches, derives render events from them, keeps the table of
// rendered-component wrappers in sync, and gives test code a synchronous
// view of the engine's batched pipeline: every public call blocks until the
// renders it triggered are fully applied, and errors raised inside the
// engine surface from the call that caused them.
//
// A renderer is Active until DisposeComponents, which is terminal; public
// operations on a disposed renderer fail with ErrDisposed.
type TestRenderer struct {
	engine       *runtime.Renderer
	toggler      runtime.BatchToggler
	activator    *Activator
	registry     *ComponentRegistry
	materializer *Materializer
	logger       *slog.Logger

	// mu is the tree-update lock: it protects the wrapper table, the root
	// list and the traversals that read them, and serializes render-event
	// application. It is never held across an engine call that could
	// re-enter the batch callback.
	mu          sync.Mutex
	wrappers    map[int][]renderedHandle
	roots       []int
	renderCount int
	unhandled   error // latest error with no caller to return to
	disposed    bool
}

type rendererConfig struct {
	logger    *slog.Logger
	factories []ComponentFactory
	nav       runtime.NavigationManager
}

// Option configures a TestRenderer.
type Option func(*rendererConfig)

// WithLogger installs a structured logger; the default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *rendererConfig) { c.logger = logger }
}

// WithFactories pre-registers component factories, earliest first.
func WithFactories(factories ...ComponentFactory) Option {
	return func(c *rendererConfig) { c.factories = append(c.factories, factories...) }
}

// WithNavigationManager installs the navigation manager reachable from
// components via ComponentBase.Navigate.
func WithNavigationManager(nav runtime.NavigationManager) Option {
	return func(c *rendererConfig) { c.nav = nav }
}

// NewTestRenderer creates an active test renderer with its own engine,
// activator and component registry.
func NewTestRenderer(opts ...Option) *TestRenderer {
	cfg := rendererConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	tr := &TestRenderer{
		registry: NewComponentRegistry(),
		logger:   cfg.logger,
		wrappers: make(map[int][]renderedHandle),
	}
	tr.activator = NewActivator(tr.registry, cfg.factories...)

	engineOpts := []runtime.Option{
		runtime.WithActivator(tr.activator),
		runtime.WithBatchCallback(tr.onUpdateDisplay),
		runtime.WithErrorCallback(tr.storeUnhandled),
	}
	if cfg.nav != nil {
		engineOpts = append(engineOpts, runtime.WithNavigationManager(cfg.nav))
	}
	tr.engine = runtime.NewRenderer(engineOpts...)
	tr.toggler = tr.engine
	tr.materializer = NewMaterializer(tr.engine)
	return tr
}

// Registry returns the component registry for this test session.
func (tr *TestRenderer) Registry() *ComponentRegistry { return tr.registry }

// RegisterFactory adds a component factory; later registrations win.
func (tr *TestRenderer) RegisterFactory(f ComponentFactory) {
	tr.activator.RegisterFactory(f)
}

// RenderCount returns the number of render events applied so far.
func (tr *TestRenderer) RenderCount() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.renderCount
}

// RenderFragment attaches an anonymous render fragment as a new root,
// blocks until its initial render is applied, and returns its wrapper.
func (tr *TestRenderer) RenderFragment(fragment rendertree.RenderFragment) (*RenderedFragment, error) {
	if fragment == nil {
		return nil, errors.New("RenderFragment: fragment is nil")
	}
	if err := tr.begin(); err != nil {
		return nil, err
	}
	container := &rootContainer{fragment: fragment}
	id, err := tr.engine.AttachRoot(container, runtime.ParameterView{})
	if err != nil {
		return nil, tr.finish(err)
	}

	tr.mu.Lock()
	if tr.disposed {
		tr.mu.Unlock()
		return nil, ErrDisposed
	}
	w := newRenderedFragment(tr, id)
	tr.wrappers[id] = append(tr.wrappers[id], w)
	tr.roots = append(tr.roots, id)
	tr.mu.Unlock()

	if err := tr.finish(nil); err != nil {
		return nil, err
	}
	return w, nil
}

// RenderComponent instantiates component type T through the activator,
// applies the initial parameters, mounts it under a fresh root container
// and blocks until the first render is applied.
func RenderComponent[T rendertree.Component](tr *TestRenderer, params ...runtime.Parameter) (*RenderedComponent[T], error) {
	if err := tr.begin(); err != nil {
		return nil, err
	}
	componentType := reflect.TypeOf((*T)(nil)).Elem()
	proto, err := tr.activator.CreateInstance(componentType)
	if err != nil {
		return nil, err
	}
	pv := runtime.ParamsFrom(params)
	if pv.Len() > 0 {
		pr, ok := proto.(runtime.ParameterReceiver)
		if !ok {
			return nil, fmt.Errorf("component type %s does not accept parameters", componentType)
		}
		if err := pr.SetParameters(pv); err != nil {
			return nil, tr.finish(err)
		}
	}

	container := &rootContainer{fragment: func(b *rendertree.Builder) {
		b.AddComponent("root", proto)
	}}
	containerID, err := tr.engine.AttachRoot(container, runtime.ParameterView{})
	if err != nil {
		return nil, tr.finish(err)
	}

	tr.mu.Lock()
	if tr.disposed {
		tr.mu.Unlock()
		return nil, ErrDisposed
	}
	childID, instance, ok := resolveComponent[T](tr.engine, containerID)
	if !ok {
		tr.mu.Unlock()
		// A factory substituted a stand-in of another type; it is in the
		// tree but cannot back a typed wrapper for T.
		return nil, fmt.Errorf("%w: no %s in the rendered tree", ErrComponentNotFound, componentType)
	}
	w := newRenderedComponent[T](tr, childID, containerID, instance)
	tr.wrappers[childID] = append(tr.wrappers[childID], w)
	tr.roots = append(tr.roots, containerID)
	tr.mu.Unlock()

	if err := tr.finish(nil); err != nil {
		return nil, err
	}
	return w, nil
}

// SetDirectParameters pushes a new parameter view into an already rendered
// component, bypassing the fragment path, and flushes the render queue. The
// engine's batch-in-progress flag brackets the push so re-renders triggered
// by the parameter logic fold into the flush cycle.
func (tr *TestRenderer) SetDirectParameters(w interface{ ComponentID() int }, params runtime.ParameterView) error {
	if w == nil {
		return errors.New("SetDirectParameters: nil rendered component")
	}
	if err := tr.begin(); err != nil {
		return err
	}
	tr.toggler.SetBatchInProgress(true)
	err := tr.engine.ApplyParameters(w.ComponentID(), params)
	tr.toggler.SetBatchInProgress(false)
	if err != nil {
		return tr.finish(err)
	}
	return tr.finish(tr.engine.FlushRenderQueue())
}

// DispatchEvent forwards a simulated DOM event to the engine's dispatch
// primitive and blocks until the renders it caused are applied. An unknown
// handler id is swallowed when ignoreUnknown is set, otherwise rewrapped
// with the handler id and field info for diagnostics.
func (tr *TestRenderer) DispatchEvent(handlerID uint64, field *rendertree.EventFieldInfo, args rendertree.EventArgs, ignoreUnknown bool) error {
	if err := tr.begin(); err != nil {
		return err
	}
	err := tr.engine.DispatchEvent(handlerID, field, args)
	if ignoreUnknown && errors.Is(err, runtime.ErrUnknownEventHandler) {
		err = nil
	}
	return tr.finish(err)
}

// DisposeComponents detaches every root, running the engine's disposal
// chain, empties the wrapper table and moves the renderer to its terminal
// disposed state. Calling it again is a no-op. Errors raised during
// disposal surface synchronously from this call.
func (tr *TestRenderer) DisposeComponents() error {
	tr.mu.Lock()
	if tr.disposed {
		tr.mu.Unlock()
		return nil
	}
	roots := tr.roots
	tr.roots = nil
	tr.mu.Unlock()

	var errs []error
	for _, id := range roots {
		if err := tr.engine.DetachRoot(id); err != nil {
			errs = append(errs, err)
		}
	}

	tr.mu.Lock()
	for id, handles := range tr.wrappers {
		delete(tr.wrappers, id)
		for _, w := range handles {
			w.notifyDisposed()
		}
	}
	tr.disposed = true
	if tr.unhandled != nil {
		errs = append(errs, tr.unhandled)
		tr.unhandled = nil
	}
	tr.mu.Unlock()

	tr.registry.Clear()
	tr.logger.Debug("test renderer disposed", "roots", len(roots))
	return unwrapSingle(errors.Join(errs...))
}

// onUpdateDisplay is the engine's batch callback. It derives a render event
// from the batch, propagates per-component status across the tree and
// applies the event to the wrapper table. Runs on the engine's execution
// context; a callback arriving after disposal observes the flag and no-ops.
func (tr *TestRenderer) onUpdateDisplay(batch *rendertree.Batch, frames rendertree.FrameSource) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.disposed {
		return nil
	}

	e := newRenderEvent(batch, frames)
	for id := range tr.wrappers {
		e.loadStatus(id)
	}
	for _, rootID := range tr.roots {
		e.loadStatus(rootID)
	}
	tr.applyRenderEventLocked(e)
	tr.renderCount++
	tr.logger.Debug("render batch applied",
		"cycle", tr.renderCount,
		"updated", len(batch.Updated),
		"disposed", len(batch.Disposed),
		"fullyApplied", e.applied())
	return nil
}

// applyRenderEventLocked delivers the event to every affected wrapper.
// Caller holds tr.mu.
func (tr *TestRenderer) applyRenderEventLocked(e *RenderEvent) {
	for id, st := range e.statuses {
		handles := tr.wrappers[id]
		if len(handles) == 0 || st.UpdatesApplied {
			continue
		}
		if st.Disposed {
			for _, w := range handles {
				if newID, rebound := w.tryRebind(e); rebound {
					// Same wrapper, new identity: re-key the table entry
					// and consume the new id's status in the same event.
					tr.wrappers[newID] = append(tr.wrappers[newID], w)
					if ns, ok := e.statuses[newID]; ok {
						ns.UpdatesApplied = true
					}
					w.applyRenderEvent(e)
					tr.logger.Debug("wrapper rebound", "from", id, "to", newID)
					continue
				}
				w.notifyDisposed()
			}
			delete(tr.wrappers, id)
			st.UpdatesApplied = true
			continue
		}
		if st.Rendered || st.Changed || e.DirectlyUpdated(id) {
			for _, w := range handles {
				w.applyRenderEvent(e)
			}
			st.UpdatesApplied = true
		}
	}
}

// storeUnhandled is the sink for errors raised by render work no public
// call is waiting on. Replace-on-write single slot: the next public call
// takes it and fails with it.
func (tr *TestRenderer) storeUnhandled(err error) {
	if err == nil {
		return
	}
	tr.mu.Lock()
	tr.unhandled = err
	tr.mu.Unlock()
	tr.logger.Debug("unhandled render error captured", "err", err)
}

// begin gates a public operation: disposed renderers fail, and an error
// captured since the last public call surfaces now rather than being
// dropped.
func (tr *TestRenderer) begin() error {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.disposed {
		return ErrDisposed
	}
	if err := tr.unhandled; err != nil {
		tr.unhandled = nil
		return unwrapSingle(err)
	}
	return nil
}

// finish composes an operation's direct error with anything captured in the
// unhandled slot while it ran, unwrapping single-cause aggregates so
// callers see the original failure.
func (tr *TestRenderer) finish(direct error) error {
	tr.mu.Lock()
	pending := tr.unhandled
	tr.unhandled = nil
	tr.mu.Unlock()
	if direct != nil && pending != nil {
		return errors.Join(unwrapSingle(direct), unwrapSingle(pending))
	}
	if direct != nil {
		return unwrapSingle(direct)
	}
	return unwrapSingle(pending)
}

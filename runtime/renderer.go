package runtime

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vcrobe/nojs-testing/rendertree"
)

// ErrUnknownEventHandler is returned by DispatchEvent when the handler id is
// no longer registered, typically because the owning element re-rendered or
// was removed after the id was captured.
var ErrUnknownEventHandler = errors.New("unknown event handler id")

// ComponentActivator resolves the concrete instance to mount for a
// prototype component. The default activator mounts the prototype itself;
// the test harness plugs in an activator that can substitute test doubles.
type ComponentActivator interface {
	Activate(proto rendertree.Component) rendertree.Component
}

// BatchToggler flips the engine's batch-in-progress flag. Exposed as a
// narrow capability so callers that must bracket out-of-band tree mutations
// (direct parameter pushes) depend on this interface instead of engine
// internals.
type BatchToggler interface {
	SetBatchInProgress(inProgress bool)
}

// BatchCallback is invoked once per completed render cycle with the batch
// and read access to current per-component frames. The batch must not be
// retained after the call returns. A non-nil error propagates to whichever
// public engine call triggered the cycle.
type BatchCallback func(batch *rendertree.Batch, frames rendertree.FrameSource) error

type handlerEntry struct {
	ownerID int
	fn      rendertree.EventHandler
}

// componentState is the engine's bookkeeping for one mounted component.
type componentState struct {
	id          int
	parentID    int // -1 for roots
	component   rendertree.Component
	frames      []rendertree.Frame
	children    map[string]int  // mount key -> child component id
	activeKeys  map[string]bool // keys seen in the current render cycle
	handlerIDs  []uint64
	initialized bool
	renderedYet bool
}

// Renderer is the reference rendering engine the harness drives. It mounts
// components, assigns component ids, renders them to frame slices, reuses
// child instances by mount key, runs lifecycle methods in engine order and
// reports each completed cycle as a render batch.
//
// All tree mutation runs on the dispatcher. The state table is additionally
// guarded by stateMu so read-side consumers (component search during an
// in-flight render) never race with frame replacement.
type Renderer struct {
	dispatcher *Dispatcher
	activator  ComponentActivator
	nav        NavigationManager
	onBatch    BatchCallback
	onError    func(error)

	stateMu       sync.RWMutex
	states        map[int]*componentState
	roots         []int
	nextID        int
	nextHandlerID uint64
	handlers      map[uint64]handlerEntry

	// queueMu guards the render queue and the batch-in-progress flag, which
	// are touched from arbitrary goroutines via RequestRender.
	queueMu    sync.Mutex
	queue      []int
	processing bool

	// Cycle-scoped accumulators, only touched on the dispatcher.
	currentBatch *rendertree.Batch
	updatedAt    map[int]int // component id -> index into currentBatch.Updated
	cycleErr     error
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithActivator installs the component activator consulted for every mount.
func WithActivator(a ComponentActivator) Option {
	return func(r *Renderer) { r.activator = a }
}

// WithNavigationManager installs the navigation manager components reach
// through ComponentBase.Navigate.
func WithNavigationManager(nav NavigationManager) Option {
	return func(r *Renderer) { r.nav = nav }
}

// WithBatchCallback installs the per-cycle batch callback.
func WithBatchCallback(cb BatchCallback) Option {
	return func(r *Renderer) { r.onBatch = cb }
}

// WithErrorCallback installs the sink for errors raised by render cycles
// that no public call is waiting on (StateHasChanged from a goroutine).
func WithErrorCallback(cb func(error)) Option {
	return func(r *Renderer) { r.onError = cb }
}

// NewRenderer creates an engine renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		dispatcher: NewDispatcher(),
		states:     make(map[int]*componentState),
		handlers:   make(map[uint64]handlerEntry),
		updatedAt:  make(map[int]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dispatcher returns the engine's execution context.
func (r *Renderer) Dispatcher() *Dispatcher {
	return r.dispatcher
}

// Navigate delegates to the configured navigation manager.
func (r *Renderer) Navigate(path string) error {
	if r.nav == nil {
		return fmt.Errorf("no navigation manager configured")
	}
	return r.nav.Navigate(path)
}

// AttachRoot mounts component as a new root, applies the initial parameters
// if the component accepts them, and drains the render queue until the
// initial render completes. The caller blocks for the whole cycle.
func (r *Renderer) AttachRoot(component rendertree.Component, params ParameterView) (int, error) {
	var id int
	err := r.dispatcher.InvokeErr(func() error {
		id = r.allocID()
		st := &componentState{
			id:         id,
			parentID:   -1,
			component:  component,
			children:   make(map[string]int),
			activeKeys: make(map[string]bool),
		}
		r.stateMu.Lock()
		r.states[id] = st
		r.roots = append(r.roots, id)
		r.stateMu.Unlock()

		if hr, ok := component.(HandleReceiver); ok {
			hr.AttachRenderHandle(RenderHandle{renderer: r, componentID: id})
		}
		if pr, ok := component.(ParameterReceiver); ok && params.Len() > 0 {
			if err := pr.SetParameters(params); err != nil {
				r.removeRoot(st)
				return err
			}
		}
		r.enqueue(id)
		if err := r.processRenderQueue(); err != nil {
			// Failed initial render: unwind the partial mount so the tree
			// holds no half-attached root.
			r.removeRoot(st)
			return err
		}
		return nil
	})
	return id, err
}

// removeRoot drops a root whose attach failed. Dispatcher context only.
func (r *Renderer) removeRoot(st *componentState) {
	r.disposeSubtree(st)
	r.stateMu.Lock()
	for i, rootID := range r.roots {
		if rootID == st.id {
			r.roots = append(r.roots[:i], r.roots[i+1:]...)
			break
		}
	}
	r.stateMu.Unlock()
}

// DetachRoot removes a root component, disposing its whole subtree and
// reporting the disposals as a render batch.
func (r *Renderer) DetachRoot(id int) error {
	return r.dispatcher.InvokeErr(func() error {
		st, ok := r.lookup(id)
		if !ok || st.parentID != -1 {
			return fmt.Errorf("component %d is not an attached root", id)
		}
		r.beginCycle()
		r.disposeSubtree(st)
		r.stateMu.Lock()
		for i, rootID := range r.roots {
			if rootID == id {
				r.roots = append(r.roots[:i], r.roots[i+1:]...)
				break
			}
		}
		r.stateMu.Unlock()
		return r.finishCycle()
	})
}

// ApplyParameters applies a new parameter view to an already mounted
// component and queues its re-render, without draining the queue. Callers
// bracket this with the batch toggler and then flush, so re-renders the
// parameter logic triggers inline are folded into one cycle.
func (r *Renderer) ApplyParameters(id int, params ParameterView) error {
	return r.dispatcher.InvokeErr(func() error {
		st, ok := r.lookup(id)
		if !ok {
			return fmt.Errorf("component %d is not mounted", id)
		}
		if params.Len() > 0 {
			pr, ok := st.component.(ParameterReceiver)
			if !ok {
				return fmt.Errorf("component %d (%T) does not accept parameters", id, st.component)
			}
			if err := pr.SetParameters(params); err != nil {
				return err
			}
		} else if pr, ok := st.component.(ParameterReceiver); ok {
			// An empty view still notifies the component, mirroring a
			// parent re-render with unchanged parameters.
			if err := pr.SetParameters(params); err != nil {
				return err
			}
		}
		r.enqueue(id)
		return nil
	})
}

// DispatchEvent invokes the handler registered under handlerID and renders
// the updates it caused before returning. field, when non-nil, names the
// binding for diagnostics. An unknown id yields ErrUnknownEventHandler
// wrapped with the id and field info.
func (r *Renderer) DispatchEvent(handlerID uint64, field *rendertree.EventFieldInfo, args rendertree.EventArgs) error {
	return r.dispatcher.InvokeErr(func() error {
		entry, ok := r.handlers[handlerID]
		if !ok {
			if field != nil {
				return fmt.Errorf("dispatching %q to handler %d: %w", field.FieldValue, handlerID, ErrUnknownEventHandler)
			}
			return fmt.Errorf("dispatching to handler %d: %w", handlerID, ErrUnknownEventHandler)
		}
		if err := entry.fn(args); err != nil {
			return err
		}
		// The handler likely mutated component state; re-render its owner.
		if _, ok := r.lookup(entry.ownerID); ok {
			r.enqueue(entry.ownerID)
		}
		return r.processRenderQueue()
	})
}

// RequestRender queues a render of the component and processes the queue.
// When a cycle is already in flight the id is folded into it. Errors have no
// caller to return to on this path, so they go to the error callback.
func (r *Renderer) RequestRender(id int) {
	r.queueMu.Lock()
	r.queue = append(r.queue, id)
	inFlight := r.processing
	r.queueMu.Unlock()
	if inFlight {
		// The active cycle re-checks the queue before finishing and will
		// pick this id up.
		return
	}
	if err := r.dispatcher.InvokeErr(r.processRenderQueue); err != nil {
		r.reportError(err)
	}
}

// FlushRenderQueue drains any queued renders synchronously.
func (r *Renderer) FlushRenderQueue() error {
	return r.dispatcher.InvokeErr(r.processRenderQueue)
}

// SetBatchInProgress implements BatchToggler.
func (r *Renderer) SetBatchInProgress(inProgress bool) {
	r.queueMu.Lock()
	r.processing = inProgress
	r.queueMu.Unlock()
}

// CurrentFrames implements rendertree.FrameSource. It returns nil for
// unknown (for example disposed) component ids.
func (r *Renderer) CurrentFrames(componentID int) []rendertree.Frame {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	st, ok := r.states[componentID]
	if !ok {
		return nil
	}
	return st.frames
}

// ComponentInstance returns the live instance mounted under componentID.
func (r *Renderer) ComponentInstance(componentID int) (rendertree.Component, bool) {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	st, ok := r.states[componentID]
	if !ok {
		return nil, false
	}
	return st.component, true
}

// Roots returns the ids of the currently attached root components.
func (r *Renderer) Roots() []int {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return append([]int(nil), r.roots...)
}

// MountChild implements rendertree.Host. It reuses the instance previously
// mounted under (parent, key), applying the prototype's props to it, or
// activates and renders a fresh instance. Child renders complete depth-first
// before the parent's frames are finalized.
func (r *Renderer) MountChild(parentID int, key string, proto rendertree.Component) (int, rendertree.Component) {
	pst, ok := r.lookup(parentID)
	if !ok {
		panic(fmt.Sprintf("runtime: MountChild for unknown parent %d", parentID))
	}
	pst.activeKeys[key] = true

	if childID, ok := pst.children[key]; ok {
		cst, ok := r.lookup(childID)
		if ok {
			if up, ok := cst.component.(PropUpdater); ok {
				up.ApplyProps(proto)
			}
			r.renderNow(cst)
			return childID, cst.component
		}
	}

	instance := proto
	if r.activator != nil {
		instance = r.activator.Activate(proto)
	}
	childID := r.allocID()
	cst := &componentState{
		id:         childID,
		parentID:   parentID,
		component:  instance,
		children:   make(map[string]int),
		activeKeys: make(map[string]bool),
	}
	r.stateMu.Lock()
	r.states[childID] = cst
	r.stateMu.Unlock()
	pst.children[key] = childID

	if hr, ok := instance.(HandleReceiver); ok {
		hr.AttachRenderHandle(RenderHandle{renderer: r, componentID: childID})
	}
	r.renderNow(cst)
	return childID, instance
}

// RegisterHandler implements rendertree.Host.
func (r *Renderer) RegisterHandler(ownerID int, handler rendertree.EventHandler) uint64 {
	r.nextHandlerID++
	id := r.nextHandlerID
	r.handlers[id] = handlerEntry{ownerID: ownerID, fn: handler}
	if st, ok := r.lookup(ownerID); ok {
		st.handlerIDs = append(st.handlerIDs, id)
	}
	return id
}

// --- render cycle internals; dispatcher context only ---

func (r *Renderer) allocID() int {
	r.nextID++
	return r.nextID
}

func (r *Renderer) lookup(id int) (*componentState, bool) {
	st, ok := r.states[id]
	return st, ok
}

func (r *Renderer) enqueue(id int) {
	r.queueMu.Lock()
	r.queue = append(r.queue, id)
	r.queueMu.Unlock()
}

func (r *Renderer) reportError(err error) {
	if r.onError != nil {
		r.onError(err)
	}
}

func (r *Renderer) beginCycle() {
	r.currentBatch = &rendertree.Batch{}
	r.updatedAt = make(map[int]int)
	r.cycleErr = nil
}

// finishCycle delivers the accumulated batch and after-render notifications.
func (r *Renderer) finishCycle() error {
	batch := r.currentBatch
	r.currentBatch = nil
	if batch == nil || batch.Empty() {
		return nil
	}
	if r.onBatch != nil {
		if err := r.onBatch(batch, r); err != nil {
			return err
		}
	}
	for _, u := range batch.Updated {
		st, ok := r.lookup(u.ComponentID)
		if !ok {
			continue
		}
		first := !st.renderedYet
		st.renderedYet = true
		if ar, ok := st.component.(AfterRenderReceiver); ok {
			ar.OnAfterRender(first)
		}
	}
	return nil
}

// processRenderQueue drains the queue, rendering each component and its
// children depth-first, then finishes the cycle. Re-entrant render requests
// raised while the queue drains (StateHasChanged from an event handler or a
// child render) land in the same cycle.
func (r *Renderer) processRenderQueue() error {
	r.queueMu.Lock()
	r.processing = true
	r.queueMu.Unlock()

	for {
		r.beginCycle()
		for {
			r.queueMu.Lock()
			if len(r.queue) == 0 {
				r.queueMu.Unlock()
				break
			}
			id := r.queue[0]
			r.queue = r.queue[1:]
			r.queueMu.Unlock()

			st, ok := r.lookup(id)
			if !ok {
				continue // disposed after it was queued
			}
			r.renderNow(st)
			if r.cycleErr != nil {
				return r.abortCycle(r.cycleErr)
			}
		}

		// The in-flight flag stays up through batch delivery and
		// OnAfterRender, so render requests raised there are queued rather
		// than re-entering the dispatcher; the outer loop picks them up as
		// a fresh cycle.
		if err := r.finishCycle(); err != nil {
			return r.abortCycle(err)
		}
		r.queueMu.Lock()
		if len(r.queue) == 0 {
			r.processing = false
			r.queueMu.Unlock()
			return nil
		}
		r.queueMu.Unlock()
	}
}

func (r *Renderer) abortCycle(err error) error {
	r.queueMu.Lock()
	r.processing = false
	r.queue = nil
	r.queueMu.Unlock()
	r.currentBatch = nil
	return err
}

// renderNow runs one component render: lifecycle, frame build, edit count,
// cleanup of children that dropped out of the tree. Errors raised by nested
// lifecycle calls are recorded in cycleErr (first error wins) because the
// builder's mount path has no error channel of its own.
func (r *Renderer) renderNow(st *componentState) {
	if r.cycleErr != nil {
		return
	}
	if !st.initialized {
		st.initialized = true
		if init, ok := st.component.(Initializer); ok {
			if err := init.OnInit(); err != nil {
				r.recordCycleErr(err)
				return
			}
		}
	}

	oldFrames := st.frames
	st.activeKeys = make(map[string]bool)
	r.dropHandlers(st)

	builder := rendertree.NewBuilder(r, st.id)
	st.component.Render(builder)
	if r.cycleErr != nil {
		return
	}
	frames := builder.Frames()

	r.stateMu.Lock()
	st.frames = frames
	r.stateMu.Unlock()

	r.recordUpdate(st.id, rendertree.CountEdits(oldFrames, frames))
	r.cleanupUnmountedChildren(st)
}

func (r *Renderer) recordCycleErr(err error) {
	if r.cycleErr == nil {
		r.cycleErr = err
	}
}

func (r *Renderer) recordUpdate(id, edits int) {
	if r.currentBatch == nil {
		return
	}
	if idx, ok := r.updatedAt[id]; ok {
		if edits > r.currentBatch.Updated[idx].EditCount {
			r.currentBatch.Updated[idx].EditCount = edits
		}
		return
	}
	r.updatedAt[id] = len(r.currentBatch.Updated)
	r.currentBatch.Updated = append(r.currentBatch.Updated, rendertree.Update{ComponentID: id, EditCount: edits})
}

// cleanupUnmountedChildren disposes children that were not re-mounted in the
// current render of st.
func (r *Renderer) cleanupUnmountedChildren(st *componentState) {
	for key, childID := range st.children {
		if st.activeKeys[key] {
			continue
		}
		if cst, ok := r.lookup(childID); ok {
			r.disposeSubtree(cst)
		}
		delete(st.children, key)
	}
}

// disposeSubtree removes st and everything below it, post-order, calling
// OnDestroy and recording disposed ids in the current batch.
func (r *Renderer) disposeSubtree(st *componentState) {
	for key, childID := range st.children {
		if cst, ok := r.lookup(childID); ok {
			r.disposeSubtree(cst)
		}
		delete(st.children, key)
	}
	r.dropHandlers(st)
	if cleaner, ok := st.component.(Cleaner); ok {
		cleaner.OnDestroy()
	}
	r.stateMu.Lock()
	delete(r.states, st.id)
	r.stateMu.Unlock()
	if r.currentBatch != nil {
		r.currentBatch.Disposed = append(r.currentBatch.Disposed, st.id)
	}
}

func (r *Renderer) dropHandlers(st *componentState) {
	for _, hid := range st.handlerIDs {
		delete(r.handlers, hid)
	}
	st.handlerIDs = nil
}

package harness

import "github.com/vcrobe/nojs-testing/rendertree"

// ComponentStatus is the per-component outcome derived from one render
// batch.
//
//   - Disposed: the component left the tree during this cycle.
//   - Rendered: the component's own render produced visible edits.
//   - Changed: the component or any descendant rendered or was disposed;
//     propagates upward and never flips back to false within one event.
//   - FramesLoaded: the status has absorbed the component's current frames
//     (memoization guard for the recursive load).
//   - UpdatesApplied: the status has been delivered to its wrapper.
type ComponentStatus struct {
	Disposed       bool
	Rendered       bool
	Changed        bool
	FramesLoaded   bool
	UpdatesApplied bool
}

// RenderEvent is the harness's derived view of one render batch: a status
// per component id touched during the cycle, plus access to the frames
// needed to rebuild affected subtrees. An event is built, applied once, and
// discarded; the batch it came from is never retained.
type RenderEvent struct {
	statuses map[int]*ComponentStatus
	updated  map[int]bool // ids the batch listed as updated, edits or not
	frames   rendertree.FrameSource
}

// newRenderEvent seeds an event from a batch: disposed ids first, then
// updated ids with Rendered reflecting whether the update carried edits.
func newRenderEvent(batch *rendertree.Batch, frames rendertree.FrameSource) *RenderEvent {
	e := &RenderEvent{
		statuses: make(map[int]*ComponentStatus),
		updated:  make(map[int]bool, len(batch.Updated)),
		frames:   frames,
	}
	for _, id := range batch.Disposed {
		e.ensure(id).Disposed = true
	}
	for _, u := range batch.Updated {
		st := e.ensure(u.ComponentID)
		st.Rendered = st.Rendered || u.EditCount > 0
		e.updated[u.ComponentID] = true
	}
	return e
}

func (e *RenderEvent) ensure(id int) *ComponentStatus {
	st, ok := e.statuses[id]
	if !ok {
		st = &ComponentStatus{}
		e.statuses[id] = st
	}
	return st
}

// loadStatus resolves the propagated status for a component: children are
// loaded depth-first before the parent's flags are folded, so a parent's
// Changed always reflects fully propagated child status.
//
// A status already loaded is never reloaded, and a disposed child's frames
// are never fetched. The latter both avoids reviving disposed subtrees and
// caps the recursion if the engine ever handed us a component reachable
// from two places; the tree contract says that cannot happen, but the guard
// costs nothing.
func (e *RenderEvent) loadStatus(id int) *ComponentStatus {
	st := e.ensure(id)
	if st.FramesLoaded || st.Disposed {
		return st
	}
	st.FramesLoaded = true

	for _, cf := range rendertree.ComponentFrames(e.frames.CurrentFrames(id)) {
		child := e.ensure(cf.ComponentID)
		if !child.Disposed {
			child = e.loadStatus(cf.ComponentID)
		}
		st.Rendered = st.Rendered || child.Rendered
		st.Changed = st.Changed || child.Changed || child.Disposed
	}
	st.Changed = st.Changed || st.Rendered
	return st
}

// Status returns a copy of the status recorded for id.
func (e *RenderEvent) Status(id int) (ComponentStatus, bool) {
	st, ok := e.statuses[id]
	if !ok {
		return ComponentStatus{}, false
	}
	return *st, true
}

// DirectlyUpdated reports whether the originating batch listed id as
// updated, regardless of edit count.
func (e *RenderEvent) DirectlyUpdated(id int) bool {
	return e.updated[id]
}

// applied reports whether every status has been delivered, after which the
// event is discarded.
func (e *RenderEvent) applied() bool {
	for _, st := range e.statuses {
		if !st.UpdatesApplied {
			return false
		}
	}
	return true
}

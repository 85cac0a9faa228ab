package rendertree

import "fmt"

// Host is the engine-side surface a Builder needs while a component renders.
// Mounting a child reuses or activates the child instance and renders it into
// its own frame slice; registering a handler allocates a process-unique id
// the engine can dispatch events to later.
type Host interface {
	MountChild(parentID int, key string, proto Component) (childID int, instance Component)
	RegisterHandler(ownerID int, handler EventHandler) uint64
}

// Builder accumulates the render-tree frames for a single component render.
// It is handed to Component.Render by the engine and is only valid for the
// duration of that call.
//
// Structural misuse (closing an element that was never opened, adding an
// attribute with no open element) panics: these are programming errors in
// the component under test, not runtime conditions.
type Builder struct {
	host    Host
	ownerID int
	frames  []Frame
	open    []int // indices of unclosed element frames
}

// NewBuilder creates a builder for one render of the component identified by
// ownerID.
func NewBuilder(host Host, ownerID int) *Builder {
	return &Builder{host: host, ownerID: ownerID}
}

// OpenElement starts an element frame. Attribute, event-handler and
// element-reference frames added before the next child apply to it.
func (b *Builder) OpenElement(tag string) {
	b.open = append(b.open, len(b.frames))
	b.frames = append(b.frames, Frame{Kind: FrameElement, Tag: tag})
}

// CloseElement closes the most recently opened element and fixes up its
// subtree length.
func (b *Builder) CloseElement() {
	if len(b.open) == 0 {
		panic("rendertree: CloseElement without matching OpenElement")
	}
	idx := b.open[len(b.open)-1]
	b.open = b.open[:len(b.open)-1]
	b.frames[idx].SubtreeLen = len(b.frames) - idx
}

// AddAttribute adds a literal markup attribute to the open element.
func (b *Builder) AddAttribute(name, value string) {
	b.requireOpenElement("AddAttribute")
	b.frames = append(b.frames, Frame{Kind: FrameAttribute, Name: name, Value: value})
}

// AddEventHandler binds handler to the named event (for example "onclick")
// on the open element. The binding renders as an inspectable attribute
// carrying the allocated handler id.
func (b *Builder) AddEventHandler(name string, handler EventHandler, opts ...EventOption) {
	b.requireOpenElement("AddEventHandler")
	id := b.host.RegisterHandler(b.ownerID, handler)
	f := Frame{Kind: FrameAttribute, Name: name, HandlerID: id}
	for _, opt := range opts {
		opt(&f)
	}
	b.frames = append(b.frames, f)
}

// AddElementReferenceCapture marks the open element with a reference-capture
// identifier, rendered as an inspectable attribute.
func (b *Builder) AddElementReferenceCapture(captureID string) {
	b.requireOpenElement("AddElementReferenceCapture")
	b.frames = append(b.frames, Frame{Kind: FrameElementRef, Name: captureID})
}

// AddText appends a text node. The text is HTML-escaped when materialized.
func (b *Builder) AddText(text string) {
	b.frames = append(b.frames, Frame{Kind: FrameText, Text: text})
}

// AddContent appends formatted text, a convenience over AddText.
func (b *Builder) AddContent(format string, args ...any) {
	b.AddText(fmt.Sprintf(format, args...))
}

// AddMarkup appends raw markup emitted verbatim when materialized.
func (b *Builder) AddMarkup(markup string) {
	b.frames = append(b.frames, Frame{Kind: FrameMarkup, Text: markup})
}

// AddComponent mounts a child component at the given key. The key identifies
// the child's position so its instance is preserved across parent re-renders;
// proto carries the freshly bound props and is only used directly the first
// time the key is seen.
func (b *Builder) AddComponent(key string, proto Component) {
	childID, instance := b.host.MountChild(b.ownerID, key, proto)
	b.frames = append(b.frames, Frame{
		Kind:        FrameComponent,
		ComponentID: childID,
		Component:   instance,
		SubtreeLen:  1,
	})
}

// AddFragment inlines an anonymous render fragment at the current position.
func (b *Builder) AddFragment(fragment RenderFragment) {
	if fragment != nil {
		fragment(b)
	}
}

// Frames returns the accumulated frames. The engine calls this once the
// component's Render has returned; all elements must be closed by then.
func (b *Builder) Frames() []Frame {
	if len(b.open) != 0 {
		panic(fmt.Sprintf("rendertree: %d element(s) left open after render", len(b.open)))
	}
	return b.frames
}

func (b *Builder) requireOpenElement(op string) {
	if len(b.open) == 0 {
		panic("rendertree: " + op + " called with no open element")
	}
	last := b.frames[len(b.frames)-1].Kind
	if last != FrameElement && last != FrameAttribute && last != FrameElementRef {
		panic("rendertree: " + op + " must directly follow the element it applies to")
	}
}

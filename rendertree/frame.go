package rendertree

// FrameKind identifies what a single render-tree frame describes.
type FrameKind uint8

const (
	// FrameElement opens a markup element. The frame's SubtreeLen covers the
	// element itself, its attribute frames and every descendant frame.
	FrameElement FrameKind = iota

	// FrameText is a plain text node. Text is emitted HTML-escaped.
	FrameText

	// FrameMarkup is a block of raw, pre-rendered markup emitted verbatim.
	FrameMarkup

	// FrameAttribute sets an attribute on the most recently opened element.
	// When HandlerID is non-zero the attribute is an event binding rather
	// than a literal markup attribute.
	FrameAttribute

	// FrameComponent mounts a child component. The child renders into its
	// own frame slice; this frame only records the child's identity.
	FrameComponent

	// FrameElementRef marks an element-reference capture on the most
	// recently opened element.
	FrameElementRef
)

// String returns a short name for the frame kind, used in logs and errors.
func (k FrameKind) String() string {
	switch k {
	case FrameElement:
		return "element"
	case FrameText:
		return "text"
	case FrameMarkup:
		return "markup"
	case FrameAttribute:
		return "attribute"
	case FrameComponent:
		return "component"
	case FrameElementRef:
		return "element-ref"
	default:
		return "unknown"
	}
}

// Frame is a single instruction in a component's render-tree description.
// A component's render output is a flat slice of frames; container frames
// (elements) record the length of their subtree so consumers can walk the
// slice without rebuilding a node graph.
//
// Only the fields relevant to a frame's Kind are populated.
type Frame struct {
	Kind FrameKind

	// Element frames.
	Tag        string
	SubtreeLen int // number of frames covered, including this one

	// Attribute frames.
	Name            string
	Value           string
	HandlerID       uint64
	StopPropagation bool
	PreventDefault  bool

	// Text and markup frames.
	Text string

	// Component frames. Component is the live child instance; ComponentID is
	// its identity in the current render.
	ComponentID int
	Component   Component

	// Element-reference capture frames reuse Name as the capture identifier.
}

// sameAs reports whether two frames are equivalent for edit counting.
// Component frames compare by id only; the instance pointer is engine state,
// not render output.
func (f Frame) sameAs(other Frame) bool {
	if f.Kind != other.Kind {
		return false
	}
	switch f.Kind {
	case FrameElement:
		return f.Tag == other.Tag && f.SubtreeLen == other.SubtreeLen
	case FrameText, FrameMarkup:
		return f.Text == other.Text
	case FrameAttribute:
		return f.Name == other.Name && f.Value == other.Value &&
			f.HandlerID == other.HandlerID &&
			f.StopPropagation == other.StopPropagation &&
			f.PreventDefault == other.PreventDefault
	case FrameComponent:
		return f.ComponentID == other.ComponentID
	case FrameElementRef:
		return f.Name == other.Name
	default:
		return false
	}
}

// CountEdits compares two frame slices and returns the number of differing
// positions. Identical output yields zero, which the harness reads as "this
// component re-rendered but produced no visible edits".
func CountEdits(old, current []Frame) int {
	edits := 0
	minLen := len(old)
	if len(current) < minLen {
		minLen = len(current)
	}
	for i := 0; i < minLen; i++ {
		if !old[i].sameAs(current[i]) {
			edits++
		}
	}
	if len(old) > minLen {
		edits += len(old) - minLen
	}
	if len(current) > minLen {
		edits += len(current) - minLen
	}
	return edits
}

// ComponentFrames returns the component frames contained in the slice, in
// document order. Callers use it to walk a component's direct children.
func ComponentFrames(frames []Frame) []Frame {
	var out []Frame
	for _, f := range frames {
		if f.Kind == FrameComponent {
			out = append(out, f)
		}
	}
	return out
}

// FrameSource provides read access to the current frames of any component
// known to the engine. Implemented by the engine renderer; consumed by the
// harness while it builds and applies render events.
type FrameSource interface {
	// CurrentFrames returns the most recent render output for the component,
	// or nil if the id is unknown (for example, already disposed).
	CurrentFrames(componentID int) []Frame
}

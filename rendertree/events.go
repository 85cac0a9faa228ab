package rendertree

// EventArgs is the payload delivered to an event handler. Concrete types
// below mirror the browser event shapes the framework forwards; handlers
// type-assert to the shape they expect.
type EventArgs any

// MouseEventArgs carries pointer event data (click, dblclick, mousedown...).
type MouseEventArgs struct {
	Button  int
	Detail  int
	ClientX float64
	ClientY float64
}

// ChangeEventArgs carries the new value of an input, select or textarea.
type ChangeEventArgs struct {
	Value string
}

// KeyboardEventArgs carries keyboard event data.
type KeyboardEventArgs struct {
	Key      string
	Code     string
	AltKey   bool
	CtrlKey  bool
	ShiftKey bool
}

// EventFieldInfo identifies the DOM field an event dispatch targets, so a
// failed dispatch can report which binding it was aimed at.
type EventFieldInfo struct {
	ComponentID int
	FieldValue  string
}

// EventHandler is a component-side callback bound to a markup event. A
// non-nil error is surfaced to the test code that dispatched the event.
type EventHandler func(args EventArgs) error

// EventOption tweaks how an event binding behaves when rendered.
type EventOption func(*Frame)

// StopPropagation marks the binding so the materialized markup carries the
// stop-propagation flag as an inspectable attribute.
func StopPropagation() EventOption {
	return func(f *Frame) { f.StopPropagation = true }
}

// PreventDefault marks the binding so the materialized markup carries the
// prevent-default flag as an inspectable attribute.
func PreventDefault() EventOption {
	return func(f *Frame) { f.PreventDefault = true }
}

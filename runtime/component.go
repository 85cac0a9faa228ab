package runtime

import (
	"fmt"

	"github.com/vcrobe/nojs-testing/rendertree"
)

// Lifecycle interfaces. Components opt in by implementing them; the engine
// probes with type assertions, so a plain Render-only component is valid.

// Initializer is called exactly once, before the component's first render.
// A non-nil error aborts the render cycle and surfaces to the caller that
// triggered it.
type Initializer interface {
	OnInit() error
}

// ParameterReceiver receives externally supplied parameters. The engine
// calls it when a root component is attached with parameters and when test
// code pushes new parameters directly; the component maps named values onto
// its own fields. A non-nil error surfaces to the caller.
type ParameterReceiver interface {
	SetParameters(params ParameterView) error
}

// PropUpdater lets a child component instance absorb the props of a freshly
// constructed prototype when its parent re-renders. Instances are reused by
// mount key to preserve state, so props travel via ApplyProps rather than by
// replacing the instance.
type PropUpdater interface {
	ApplyProps(proto rendertree.Component)
}

// Cleaner is called when the component is removed from the tree.
type Cleaner interface {
	OnDestroy()
}

// AfterRenderReceiver is called after a render cycle in which the component
// was updated has been fully applied. first is true only for the call that
// follows the component's initial render.
type AfterRenderReceiver interface {
	OnAfterRender(first bool)
}

// NavigationManager performs client-side navigation on behalf of components.
// Tests plug in a fake implementation; no browser history is involved.
type NavigationManager interface {
	Navigate(path string) error
	CurrentPath() string
}

// Parameter is a single named value supplied to a component.
type Parameter struct {
	Name  string
	Value any
}

// ParameterView is an ordered collection of parameters, as handed to
// ParameterReceiver.SetParameters. Order follows construction order so
// components that care about it get deterministic behavior.
type ParameterView struct {
	params []Parameter
}

// Params builds a ParameterView from alternating name/value pairs:
//
//	runtime.Params("Count", 1, "Name", "test")
//
// It panics on an odd number of arguments or a non-string name; both are
// programming errors at the test-call site.
func Params(pairs ...any) ParameterView {
	if len(pairs)%2 != 0 {
		panic("runtime: Params requires alternating name/value pairs")
	}
	pv := ParameterView{params: make([]Parameter, 0, len(pairs)/2)}
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("runtime: parameter name at index %d is %T, not string", i, pairs[i]))
		}
		pv.params = append(pv.params, Parameter{Name: name, Value: pairs[i+1]})
	}
	return pv
}

// ParamsFrom builds a ParameterView from an explicit parameter slice.
func ParamsFrom(params []Parameter) ParameterView {
	return ParameterView{params: append([]Parameter(nil), params...)}
}

// Lookup returns the value for name and whether it was present. The last
// occurrence wins when a name is supplied twice.
func (pv ParameterView) Lookup(name string) (any, bool) {
	var val any
	found := false
	for _, p := range pv.params {
		if p.Name == name {
			val, found = p.Value, true
		}
	}
	return val, found
}

// All returns the parameters in construction order.
func (pv ParameterView) All() []Parameter {
	return append([]Parameter(nil), pv.params...)
}

// Len returns the number of parameters.
func (pv ParameterView) Len() int {
	return len(pv.params)
}

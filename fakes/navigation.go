package fakes

import (
	"sort"
	"sync"

	"github.com/vcrobe/nojs-testing/router"
	"github.com/vcrobe/nojs-testing/runtime"
)

// ParameterTarget receives route parameters on navigation. The harness's
// rendered-component wrappers satisfy it.
type ParameterTarget interface {
	SetParametersAndRender(params runtime.ParameterView) error
}

// NavigationManager is an in-memory runtime.NavigationManager. It records
// every navigation and, when a route binding matches the path, pushes the
// captured parameters into the bound component synchronously, so rendered
// output reflects the new route before Navigate returns.
type NavigationManager struct {
	mu      sync.Mutex
	current string
	history []string
	table   *router.Table
}

// NewNavigationManager creates a navigation manager positioned at "/".
func NewNavigationManager() *NavigationManager {
	return &NavigationManager{current: "/", table: router.NewTable()}
}

// BindRoute registers a route template whose captured parameters are applied
// to target on every matching navigation. Templates are tried in
// registration order.
func (n *NavigationManager) BindRoute(template string, target ParameterTarget) error {
	return n.table.Register(template, target)
}

// Navigate implements runtime.NavigationManager. Unbound paths are recorded
// and succeed; only a bound target's parameter push can fail.
//
// Route-bound navigation must come from test code. A component navigating to
// a bound route from inside its own lifecycle would re-enter the renderer's
// execution context through the parameter push.
func (n *NavigationManager) Navigate(path string) error {
	n.mu.Lock()
	n.current = path
	n.history = append(n.history, path)
	n.mu.Unlock()

	target, params, ok := n.table.Resolve(path)
	if !ok {
		return nil
	}
	pt, ok := target.(ParameterTarget)
	if !ok {
		return nil
	}
	return pt.SetParametersAndRender(paramsToView(params))
}

// CurrentPath implements runtime.NavigationManager.
func (n *NavigationManager) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// History returns every path navigated to, in order.
func (n *NavigationManager) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.history...)
}

// paramsToView flattens captured route parameters into a parameter view,
// name-sorted for deterministic order.
func paramsToView(params router.Params) runtime.ParameterView {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	flat := make([]runtime.Parameter, 0, len(names))
	for _, name := range names {
		flat = append(flat, runtime.Parameter{Name: name, Value: params[name]})
	}
	return runtime.ParamsFrom(flat)
}

package fakes

import (
	"fmt"
	"sync"
)

// JSInvocation records one call made through the JS runtime fake.
type JSInvocation struct {
	Identifier string
	Args       []any
}

// JSRuntime is an in-memory stand-in for the host's JS interop service.
// Tests set up canned results per identifier and later assert on the
// recorded invocations. In strict mode (the default) an identifier without
// a setup fails the invocation; loose mode returns nil instead.
type JSRuntime struct {
	mu          sync.Mutex
	loose       bool
	handlers    map[string]func(args ...any) (any, error)
	invocations []JSInvocation
}

// NewJSRuntime creates a strict-mode JS runtime fake.
func NewJSRuntime() *JSRuntime {
	return &JSRuntime{handlers: make(map[string]func(args ...any) (any, error))}
}

// SetLoose switches between strict and loose handling of identifiers with no
// setup.
func (j *JSRuntime) SetLoose(loose bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.loose = loose
}

// Setup registers a fixed result for identifier.
func (j *JSRuntime) Setup(identifier string, result any) {
	j.SetupFunc(identifier, func(...any) (any, error) { return result, nil })
}

// SetupFunc registers a handler computing the result per invocation.
func (j *JSRuntime) SetupFunc(identifier string, fn func(args ...any) (any, error)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.handlers[identifier] = fn
}

// Invoke records the call and runs the matching setup.
func (j *JSRuntime) Invoke(identifier string, args ...any) (any, error) {
	j.mu.Lock()
	j.invocations = append(j.invocations, JSInvocation{Identifier: identifier, Args: args})
	fn, ok := j.handlers[identifier]
	loose := j.loose
	j.mu.Unlock()

	if !ok {
		if loose {
			return nil, nil
		}
		return nil, fmt.Errorf("no setup for JS invocation %q", identifier)
	}
	return fn(args...)
}

// Invocations returns the recorded calls for identifier, in order. An empty
// identifier returns every recorded call.
func (j *JSRuntime) Invocations(identifier string) []JSInvocation {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []JSInvocation
	for _, inv := range j.invocations {
		if identifier == "" || inv.Identifier == identifier {
			out = append(out, inv)
		}
	}
	return out
}

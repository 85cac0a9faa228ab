package runtime

import "fmt"

// RenderHandle is the component's link back to the renderer that mounted it.
// The engine injects it when the component is attached to the tree.
type RenderHandle struct {
	renderer    *Renderer
	componentID int
}

// HandleReceiver is implemented by components that want a render handle.
// ComponentBase provides the implementation; the engine probes for the
// interface so plain components remain valid.
type HandleReceiver interface {
	AttachRenderHandle(h RenderHandle)
}

// ComponentBase is embedded by components to gain StateHasChanged and
// Navigate. It carries the render handle injected by the engine.
type ComponentBase struct {
	handle RenderHandle
}

// AttachRenderHandle is called by the engine when the component is mounted.
// It should not be called by user code.
func (b *ComponentBase) AttachRenderHandle(h RenderHandle) {
	b.handle = h
}

// ComponentID returns the engine-assigned id for this component, or zero if
// the component has not been mounted.
func (b *ComponentBase) ComponentID() int {
	return b.handle.componentID
}

// StateHasChanged signals that the component's state was updated and a
// re-render is needed. Safe to call from any goroutine: the request is
// marshaled onto the renderer's execution context. Errors raised by the
// resulting render cycle are reported through the renderer's unhandled-error
// channel, since this call site has nowhere to return them.
func (b *ComponentBase) StateHasChanged() {
	if b.handle.renderer == nil {
		// Not mounted yet; nothing to re-render.
		return
	}
	b.handle.renderer.RequestRender(b.handle.componentID)
}

// Navigate requests client-side navigation to the given path via the
// renderer's navigation manager.
func (b *ComponentBase) Navigate(path string) error {
	if b.handle.renderer == nil {
		return fmt.Errorf("navigate: component is not mounted")
	}
	return b.handle.renderer.Navigate(path)
}

package rendertree

// Component is the contract every nojs-style component satisfies. Render
// describes the component's current output by issuing instructions to the
// builder; it must not retain the builder beyond the call.
type Component interface {
	Render(b *Builder)
}

// RenderFragment is an anonymous piece of render output. Test code uses
// fragments to mount arbitrary markup and component combinations without
// declaring a named component type.
type RenderFragment func(b *Builder)

package testcomponents

import (
	"github.com/vcrobe/nojs-testing/rendertree"
	"github.com/vcrobe/nojs-testing/runtime"
)

// Stub is a registered-by-factory stand-in. It records the prototype it
// replaced so tests can assert on the props the parent tried to bind.
type Stub struct {
	runtime.ComponentBase

	ReplacedProto rendertree.Component
}

func (s *Stub) Render(b *rendertree.Builder) {
	b.OpenElement("div")
	b.AddAttribute("class", "stub")
	b.CloseElement()
}

// ApplyProps records the prototype instead of absorbing it.
func (s *Stub) ApplyProps(proto rendertree.Component) {
	s.ReplacedProto = proto
}

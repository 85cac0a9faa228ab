package testcomponents

import (
	"github.com/vcrobe/nojs-testing/rendertree"
	"github.com/vcrobe/nojs-testing/runtime"
)

// Parent conditionally renders a Label child, for disposal and
// changed-status propagation tests.
type Parent struct {
	runtime.ComponentBase

	ShowChild bool
	ChildText string
}

func (p *Parent) Render(b *rendertree.Builder) {
	b.OpenElement("div")
	b.AddAttribute("class", "parent")
	if p.ShowChild {
		b.AddComponent("child", &Label{Text: p.ChildText})
	}
	b.CloseElement()
}

// SetChildText updates the child's text and re-renders.
func (p *Parent) SetChildText(text string) {
	p.ChildText = text
	p.StateHasChanged()
}

// HideChild removes the child from the tree and re-renders.
func (p *Parent) HideChild() {
	p.ShowChild = false
	p.StateHasChanged()
}

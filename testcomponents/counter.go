// Package testcomponents holds small components used by the harness's own
// test suites. They are real components, not mocks: they embed
// runtime.ComponentBase and render through the frame builder like any
// application component would.
package testcomponents

import (
	"github.com/vcrobe/nojs-testing/rendertree"
	"github.com/vcrobe/nojs-testing/runtime"
)

// Counter renders a count and a button that increments it.
type Counter struct {
	runtime.ComponentBase

	Count int
}

func (c *Counter) Render(b *rendertree.Builder) {
	b.OpenElement("p")
	b.AddAttribute("class", "count")
	b.AddContent("Current count: %d", c.Count)
	b.CloseElement()

	b.OpenElement("button")
	b.AddEventHandler("onclick", func(rendertree.EventArgs) error {
		c.Count++
		return nil
	})
	b.AddText("Click me")
	b.CloseElement()
}

package testcomponents

import (
	"github.com/vcrobe/nojs-testing/rendertree"
	"github.com/vcrobe/nojs-testing/runtime"
)

// Label renders its text in a span. Used as the child component in find and
// disposal tests.
type Label struct {
	runtime.ComponentBase

	Text string
}

func (l *Label) Render(b *rendertree.Builder) {
	b.OpenElement("span")
	b.AddAttribute("class", "label")
	b.AddText(l.Text)
	b.CloseElement()
}

// ApplyProps absorbs the prototype's text when the parent re-renders.
func (l *Label) ApplyProps(proto rendertree.Component) {
	if p, ok := proto.(*Label); ok {
		l.Text = p.Text
	}
}

// SetParameters maps the "text" parameter onto the component.
func (l *Label) SetParameters(params runtime.ParameterView) error {
	if v, ok := params.Lookup("text"); ok {
		l.Text, _ = v.(string)
	}
	return nil
}

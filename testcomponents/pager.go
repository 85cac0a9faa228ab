package testcomponents

import (
	"fmt"

	"github.com/vcrobe/nojs-testing/rendertree"
	"github.com/vcrobe/nojs-testing/runtime"
)

// Pager is a routable page component with typed parameters. The navigation
// fake pushes matched route values into it via SetParameters.
type Pager struct {
	runtime.ComponentBase

	Count int
	Name  string
}

func (p *Pager) Render(b *rendertree.Builder) {
	b.OpenElement("h1")
	b.AddAttribute("class", "pager")
	b.AddContent("%s, page %d", p.Name, p.Count)
	b.CloseElement()
}

// SetParameters maps the "count" and "name" route parameters onto the
// component's fields, rejecting values of the wrong type.
func (p *Pager) SetParameters(params runtime.ParameterView) error {
	if v, ok := params.Lookup("count"); ok {
		n, ok := v.(int)
		if !ok {
			return fmt.Errorf("pager: count parameter is %T, want int", v)
		}
		p.Count = n
	}
	if v, ok := params.Lookup("name"); ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("pager: name parameter is %T, want string", v)
		}
		p.Name = s
	}
	return nil
}

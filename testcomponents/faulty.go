package testcomponents

import (
	"errors"

	"github.com/vcrobe/nojs-testing/rendertree"
	"github.com/vcrobe/nojs-testing/runtime"
)

// Errors raised by Faulty, matched in tests with errors.Is.
var (
	ErrInitFailed   = errors.New("init failed")
	ErrParamsFailed = errors.New("set parameters failed")
)

// Faulty fails configurable lifecycle steps, for error-propagation tests.
type Faulty struct {
	runtime.ComponentBase

	FailInit   bool
	FailParams bool
}

func (f *Faulty) OnInit() error {
	if f.FailInit {
		return ErrInitFailed
	}
	return nil
}

func (f *Faulty) SetParameters(runtime.ParameterView) error {
	if f.FailParams {
		return ErrParamsFailed
	}
	return nil
}

func (f *Faulty) Render(b *rendertree.Builder) {
	b.OpenElement("div")
	b.AddText("still standing")
	b.CloseElement()
}

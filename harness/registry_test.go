package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vcrobe/nojs-testing/testcomponents"
)

func TestRegistryRegisterIsIdempotent(t *testing.T) {
	r := NewComponentRegistry()
	a := &testcomponents.Label{Text: "a"}
	b := &testcomponents.Label{Text: "b"}

	r.Register(a)
	r.Register(b)
	r.Register(a)
	r.Register(nil)

	all := r.AllComponents()
	assert.Len(t, all, 2)
	assert.Same(t, a, all[0])
	assert.Same(t, b, all[1])
}

func TestRegistryClear(t *testing.T) {
	r := NewComponentRegistry()
	r.Register(&testcomponents.Label{})
	r.Clear()
	assert.Empty(t, r.AllComponents())

	r.Register(&testcomponents.Label{})
	assert.Len(t, r.AllComponents(), 1)
}

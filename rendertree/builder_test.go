package rendertree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcrobe/nojs-testing/rendertree"
)

// builderHost is a minimal Host for builder tests: sequential child ids and
// handler ids, no rendering.
type builderHost struct {
	nextChild   int
	nextHandler uint64
	mountedKeys []string
}

func (h *builderHost) MountChild(parentID int, key string, proto rendertree.Component) (int, rendertree.Component) {
	h.nextChild++
	h.mountedKeys = append(h.mountedKeys, key)
	return h.nextChild, proto
}

func (h *builderHost) RegisterHandler(ownerID int, handler rendertree.EventHandler) uint64 {
	h.nextHandler++
	return h.nextHandler
}

func TestBuilderSubtreeLengths(t *testing.T) {
	b := rendertree.NewBuilder(&builderHost{}, 1)
	b.OpenElement("div")
	b.AddAttribute("class", "outer")
	b.OpenElement("span")
	b.AddText("hello")
	b.CloseElement()
	b.CloseElement()

	frames := b.Frames()
	require.Len(t, frames, 4)
	assert.Equal(t, rendertree.FrameElement, frames[0].Kind)
	assert.Equal(t, 4, frames[0].SubtreeLen)
	assert.Equal(t, rendertree.FrameAttribute, frames[1].Kind)
	assert.Equal(t, 2, frames[2].SubtreeLen)
	assert.Equal(t, "hello", frames[3].Text)
}

func TestBuilderEventHandlerOptions(t *testing.T) {
	host := &builderHost{}
	b := rendertree.NewBuilder(host, 1)
	b.OpenElement("button")
	b.AddEventHandler("onclick", func(rendertree.EventArgs) error { return nil },
		rendertree.StopPropagation(), rendertree.PreventDefault())
	b.CloseElement()

	frames := b.Frames()
	require.Len(t, frames, 2)
	f := frames[1]
	assert.Equal(t, "onclick", f.Name)
	assert.Equal(t, uint64(1), f.HandlerID)
	assert.True(t, f.StopPropagation)
	assert.True(t, f.PreventDefault)
}

func TestBuilderMountsChildrenByKey(t *testing.T) {
	host := &builderHost{}
	b := rendertree.NewBuilder(host, 1)
	b.OpenElement("div")
	b.AddComponent("a", nil)
	b.AddComponent("b", nil)
	b.CloseElement()

	frames := b.Frames()
	require.Len(t, frames, 3)
	assert.Equal(t, []string{"a", "b"}, host.mountedKeys)
	assert.Equal(t, 1, frames[1].ComponentID)
	assert.Equal(t, 2, frames[2].ComponentID)
}

func TestBuilderStructuralMisusePanics(t *testing.T) {
	assert.Panics(t, func() {
		rendertree.NewBuilder(&builderHost{}, 1).CloseElement()
	})
	assert.Panics(t, func() {
		rendertree.NewBuilder(&builderHost{}, 1).AddAttribute("class", "x")
	})
	assert.Panics(t, func() {
		b := rendertree.NewBuilder(&builderHost{}, 1)
		b.OpenElement("div")
		b.AddText("text")
		b.AddAttribute("class", "late")
	})
	assert.Panics(t, func() {
		b := rendertree.NewBuilder(&builderHost{}, 1)
		b.OpenElement("div")
		b.Frames()
	})
}

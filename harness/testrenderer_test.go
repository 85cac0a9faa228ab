package harness_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcrobe/nojs-testing/harness"
	"github.com/vcrobe/nojs-testing/rendertree"
	"github.com/vcrobe/nojs-testing/runtime"
	"github.com/vcrobe/nojs-testing/testcomponents"
)

func TestRenderComponentProducesMarkup(t *testing.T) {
	tr := harness.NewTestRenderer()
	w, err := harness.RenderComponent[*testcomponents.Counter](tr)
	require.NoError(t, err)

	markup, err := w.Markup()
	require.NoError(t, err)
	assert.Contains(t, markup, "Current count: 0")
	assert.Equal(t, 0, w.Instance().Count)
}

func TestRenderFragmentProducesMarkup(t *testing.T) {
	tr := harness.NewTestRenderer()
	w, err := tr.RenderFragment(func(b *rendertree.Builder) {
		b.OpenElement("h1")
		b.AddText("hello")
		b.CloseElement()
	})
	require.NoError(t, err)

	sel, err := w.Find("h1")
	require.NoError(t, err)
	assert.Equal(t, "hello", sel.Text())
}

func TestClickRerendersCounter(t *testing.T) {
	tr := harness.NewTestRenderer()
	w, err := harness.RenderComponent[*testcomponents.Counter](tr)
	require.NoError(t, err)

	btn, err := w.Find("button")
	require.NoError(t, err)
	require.NoError(t, tr.Click(btn))

	assert.Equal(t, 1, w.Instance().Count)
	markup, err := w.Markup()
	require.NoError(t, err)
	assert.Contains(t, markup, "Current count: 1")
	assert.Equal(t, 1, w.RenderCount())
}

func TestNodeTreeStableBetweenRenders(t *testing.T) {
	tr := harness.NewTestRenderer()
	w, err := harness.RenderComponent[*testcomponents.Counter](tr)
	require.NoError(t, err)

	first, err := w.Nodes()
	require.NoError(t, err)
	second, err := w.Nodes()
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.Same(t, first[0], second[0], "no render between calls: same snapshot")

	btn, err := w.Find("button")
	require.NoError(t, err)
	require.NoError(t, tr.Click(btn))

	third, err := w.Nodes()
	require.NoError(t, err)
	assert.NotSame(t, first[0], third[0], "render event replaces the snapshot")
}

func TestFindMissingSelectorFails(t *testing.T) {
	tr := harness.NewTestRenderer()
	w, err := harness.RenderComponent[*testcomponents.Counter](tr)
	require.NoError(t, err)

	_, err = w.Find("table")
	assert.ErrorIs(t, err, harness.ErrElementNotFound)

	sel, err := w.FindAll("table")
	require.NoError(t, err)
	assert.Equal(t, 0, sel.Length())
}

func TestFindComponentsDocumentOrder(t *testing.T) {
	tr := harness.NewTestRenderer()
	w, err := tr.RenderFragment(func(b *rendertree.Builder) {
		b.OpenElement("div")
		b.AddComponent("first", &testcomponents.Label{Text: "First"})
		b.AddComponent("second", &testcomponents.Label{Text: "Second"})
		b.CloseElement()
	})
	require.NoError(t, err)

	labels, err := harness.FindComponents[*testcomponents.Label](tr, w)
	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, "First", labels[0].Instance().Text)
	assert.Equal(t, "Second", labels[1].Instance().Text)

	one, err := harness.FindComponent[*testcomponents.Label](tr, w)
	require.NoError(t, err)
	assert.Equal(t, "First", one.Instance().Text)

	_, err = harness.FindComponent[*testcomponents.Pager](tr, w)
	assert.ErrorIs(t, err, harness.ErrComponentNotFound)
}

func TestFoundWrapperTracksParentRerenders(t *testing.T) {
	tr := harness.NewTestRenderer()
	parent := &testcomponents.Parent{ShowChild: true, ChildText: "one"}
	w, err := tr.RenderFragment(func(b *rendertree.Builder) {
		b.AddComponent("p", parent)
	})
	require.NoError(t, err)

	lw, err := harness.FindComponent[*testcomponents.Label](tr, w)
	require.NoError(t, err)
	markup, err := lw.Markup()
	require.NoError(t, err)
	assert.Contains(t, markup, "one")

	parent.SetChildText("two")

	markup, err = lw.Markup()
	require.NoError(t, err)
	assert.Contains(t, markup, "two")
	assert.Equal(t, "two", lw.Instance().Text)
}

func TestFoundWrapperDisposedWithChild(t *testing.T) {
	tr := harness.NewTestRenderer()
	parent := &testcomponents.Parent{ShowChild: true, ChildText: "bye"}
	w, err := tr.RenderFragment(func(b *rendertree.Builder) {
		b.AddComponent("p", parent)
	})
	require.NoError(t, err)

	lw, err := harness.FindComponent[*testcomponents.Label](tr, w)
	require.NoError(t, err)

	parent.HideChild()

	_, err = lw.Markup()
	assert.ErrorIs(t, err, harness.ErrDisposed)

	_, err = harness.FindComponent[*testcomponents.Label](tr, w)
	assert.ErrorIs(t, err, harness.ErrComponentNotFound)
}

func TestSetParametersAndRender(t *testing.T) {
	tr := harness.NewTestRenderer()
	w, err := harness.RenderComponent[*testcomponents.Pager](tr,
		runtime.Parameter{Name: "count", Value: 3},
		runtime.Parameter{Name: "name", Value: "alpha"})
	require.NoError(t, err)

	markup, err := w.Markup()
	require.NoError(t, err)
	assert.Contains(t, markup, "alpha, page 3")

	require.NoError(t, w.SetParametersAndRender(runtime.Params("count", 4, "name", "beta")))
	markup, err = w.Markup()
	require.NoError(t, err)
	assert.Contains(t, markup, "beta, page 4")
	assert.Equal(t, 4, w.Instance().Count)
}

func TestSetParametersErrorSurfaces(t *testing.T) {
	tr := harness.NewTestRenderer()
	w, err := harness.RenderComponent[*testcomponents.Faulty](tr)
	require.NoError(t, err)

	w.Instance().FailParams = true
	err = w.SetParametersAndRender(runtime.Params("any", 1))
	assert.ErrorIs(t, err, testcomponents.ErrParamsFailed)

	// The failure was surfaced; the renderer stays usable.
	w.Instance().FailParams = false
	assert.NoError(t, w.Render())
}

func TestDispatchUnknownHandler(t *testing.T) {
	tr := harness.NewTestRenderer()
	_, err := harness.RenderComponent[*testcomponents.Counter](tr)
	require.NoError(t, err)

	err = tr.DispatchEvent(9999, &rendertree.EventFieldInfo{FieldValue: "onclick"}, nil, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, runtime.ErrUnknownEventHandler)
	assert.Contains(t, err.Error(), "onclick")

	require.NoError(t, tr.DispatchEvent(9999, nil, nil, true))
}

func TestFactorySubstitutesChildComponent(t *testing.T) {
	tr := harness.NewTestRenderer(harness.WithFactories(
		harness.FactoryFor[*testcomponents.Label](func() rendertree.Component {
			return &testcomponents.Stub{}
		})))
	parent := &testcomponents.Parent{ShowChild: true, ChildText: "hi"}
	w, err := tr.RenderFragment(func(b *rendertree.Builder) {
		b.AddComponent("p", parent)
	})
	require.NoError(t, err)

	stub, err := harness.FindComponent[*testcomponents.Stub](tr, w)
	require.NoError(t, err)
	proto, ok := stub.Instance().ReplacedProto.(*testcomponents.Label)
	require.True(t, ok)
	assert.Equal(t, "hi", proto.Text)

	markup, err := w.Markup()
	require.NoError(t, err)
	assert.Contains(t, markup, `class="stub"`)
	assert.NotContains(t, markup, `class="label"`)
}

func TestRegistryRecordsActivatedComponents(t *testing.T) {
	tr := harness.NewTestRenderer()
	parent := &testcomponents.Parent{ShowChild: true, ChildText: "x"}
	_, err := tr.RenderFragment(func(b *rendertree.Builder) {
		b.AddComponent("p", parent)
	})
	require.NoError(t, err)

	all := tr.Registry().AllComponents()
	assert.Contains(t, all, rendertree.Component(parent))
	require.Len(t, all, 2)
}

func TestDisposeComponents(t *testing.T) {
	tr := harness.NewTestRenderer()
	w, err := harness.RenderComponent[*testcomponents.Counter](tr)
	require.NoError(t, err)

	require.NoError(t, tr.DisposeComponents())
	require.NoError(t, tr.DisposeComponents(), "second disposal is a no-op")

	_, err = w.Markup()
	assert.ErrorIs(t, err, harness.ErrDisposed)
	_, err = harness.RenderComponent[*testcomponents.Counter](tr)
	assert.ErrorIs(t, err, harness.ErrDisposed)
	err = tr.DispatchEvent(1, nil, nil, true)
	assert.ErrorIs(t, err, harness.ErrDisposed)
	assert.Empty(t, tr.Registry().AllComponents())
}

func TestOnRenderNotifications(t *testing.T) {
	tr := harness.NewTestRenderer()
	w, err := harness.RenderComponent[*testcomponents.Counter](tr)
	require.NoError(t, err)

	var seen int
	unsubscribe := w.OnRender(func() { seen++ })

	btn, err := w.Find("button")
	require.NoError(t, err)
	require.NoError(t, tr.Click(btn))
	assert.Equal(t, 1, seen)

	unsubscribe()
	btn, err = w.Find("button")
	require.NoError(t, err)
	require.NoError(t, tr.Click(btn))
	assert.Equal(t, 1, seen)
}

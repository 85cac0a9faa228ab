package fakes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcrobe/nojs-testing/fakes"
	"github.com/vcrobe/nojs-testing/harness"
	"github.com/vcrobe/nojs-testing/testcomponents"
)

func TestNavigationInjectsRouteParameters(t *testing.T) {
	nav := fakes.NewNavigationManager()
	tr := harness.NewTestRenderer(harness.WithNavigationManager(nav))

	w, err := harness.RenderComponent[*testcomponents.Pager](tr)
	require.NoError(t, err)
	require.NoError(t, nav.BindRoute("/page/{count:int}/{name}", w))

	require.NoError(t, nav.Navigate("/page/1/test"))

	assert.Equal(t, 1, w.Instance().Count)
	assert.Equal(t, "test", w.Instance().Name)
	markup, err := w.Markup()
	require.NoError(t, err)
	assert.Contains(t, markup, "test, page 1")
	assert.Equal(t, "/page/1/test", nav.CurrentPath())
}

func TestNavigationRecordsHistoryForUnboundPaths(t *testing.T) {
	nav := fakes.NewNavigationManager()
	assert.Equal(t, "/", nav.CurrentPath())

	require.NoError(t, nav.Navigate("/a"))
	require.NoError(t, nav.Navigate("/b"))

	assert.Equal(t, "/b", nav.CurrentPath())
	assert.Equal(t, []string{"/a", "/b"}, nav.History())
}

func TestNavigationTypeMismatchRejectsRoute(t *testing.T) {
	nav := fakes.NewNavigationManager()
	tr := harness.NewTestRenderer(harness.WithNavigationManager(nav))

	w, err := harness.RenderComponent[*testcomponents.Pager](tr)
	require.NoError(t, err)
	require.NoError(t, nav.BindRoute("/page/{count:int}/{name}", w))

	// "one" fails the int converter, so the template does not match and the
	// component keeps its state.
	require.NoError(t, nav.Navigate("/page/one/test"))
	assert.Equal(t, 0, w.Instance().Count)
	assert.Equal(t, "", w.Instance().Name)
}

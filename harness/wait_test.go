package harness_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcrobe/nojs-testing/harness"
	"github.com/vcrobe/nojs-testing/testcomponents"
)

func TestWaitForStateSeesAsyncRender(t *testing.T) {
	tr := harness.NewTestRenderer()
	w, err := harness.RenderComponent[*testcomponents.Ticker](tr)
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		w.Instance().Advance()
	}()

	err = harness.WaitForState(w.RenderedFragment, func() bool {
		return w.Instance().Ticks() >= 1
	}, time.Second)
	require.NoError(t, err)

	markup, err := w.Markup()
	require.NoError(t, err)
	assert.Contains(t, markup, "ticks: 1")
}

func TestWaitForAssertionTimesOut(t *testing.T) {
	tr := harness.NewTestRenderer()
	w, err := harness.RenderComponent[*testcomponents.Ticker](tr)
	require.NoError(t, err)

	err = harness.WaitForAssertion(w.RenderedFragment, func() error {
		return fmt.Errorf("never satisfied")
	}, 50*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "never satisfied")
}

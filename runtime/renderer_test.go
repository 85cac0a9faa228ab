package runtime_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcrobe/nojs-testing/rendertree"
	"github.com/vcrobe/nojs-testing/runtime"
	"github.com/vcrobe/nojs-testing/testcomponents"
)

// batchRecorder captures every batch the engine reports.
type batchRecorder struct {
	mu      sync.Mutex
	batches []rendertree.Batch
}

func (r *batchRecorder) callback(batch *rendertree.Batch, _ rendertree.FrameSource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, *batch)
	return nil
}

func (r *batchRecorder) last() rendertree.Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches[len(r.batches)-1]
}

func (r *batchRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

// lifecycleProbe records the order its lifecycle methods run in.
type lifecycleProbe struct {
	runtime.ComponentBase
	log *[]string
}

func (p *lifecycleProbe) OnInit() error {
	*p.log = append(*p.log, "init")
	return nil
}

func (p *lifecycleProbe) SetParameters(runtime.ParameterView) error {
	*p.log = append(*p.log, "params")
	return nil
}

func (p *lifecycleProbe) Render(b *rendertree.Builder) {
	*p.log = append(*p.log, "render")
	b.OpenElement("div")
	b.CloseElement()
}

func (p *lifecycleProbe) OnAfterRender(first bool) {
	if first {
		*p.log = append(*p.log, "afterRender(first)")
		return
	}
	*p.log = append(*p.log, "afterRender")
}

func (p *lifecycleProbe) OnDestroy() {
	*p.log = append(*p.log, "destroy")
}

func TestAttachRootReportsInitialRender(t *testing.T) {
	rec := &batchRecorder{}
	r := runtime.NewRenderer(runtime.WithBatchCallback(rec.callback))

	counter := &testcomponents.Counter{}
	id, err := r.AttachRoot(counter, runtime.ParameterView{})
	require.NoError(t, err)

	batch := rec.last()
	require.Len(t, batch.Updated, 1)
	assert.Equal(t, id, batch.Updated[0].ComponentID)
	assert.Greater(t, batch.Updated[0].EditCount, 0)
	assert.NotEmpty(t, r.CurrentFrames(id))
}

func TestLifecycleOrder(t *testing.T) {
	var log []string
	r := runtime.NewRenderer()
	probe := &lifecycleProbe{log: &log}

	id, err := r.AttachRoot(probe, runtime.Params("x", 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"params", "init", "render", "afterRender(first)"}, log)

	log = nil
	require.NoError(t, r.ApplyParameters(id, runtime.Params("x", 2)))
	require.NoError(t, r.FlushRenderQueue())
	assert.Equal(t, []string{"params", "render", "afterRender"}, log)

	log = nil
	require.NoError(t, r.DetachRoot(id))
	assert.Equal(t, []string{"destroy"}, log)
}

func TestChildInstanceReusedByKey(t *testing.T) {
	r := runtime.NewRenderer(runtime.WithBatchCallback((&batchRecorder{}).callback))
	parent := &testcomponents.Parent{ShowChild: true, ChildText: "one"}

	id, err := r.AttachRoot(parent, runtime.ParameterView{})
	require.NoError(t, err)

	children := rendertree.ComponentFrames(r.CurrentFrames(id))
	require.Len(t, children, 1)
	first := children[0].Component

	parent.SetChildText("two")
	require.NoError(t, r.FlushRenderQueue())

	children = rendertree.ComponentFrames(r.CurrentFrames(id))
	require.Len(t, children, 1)
	assert.Same(t, first, children[0].Component)
	assert.Equal(t, "two", children[0].Component.(*testcomponents.Label).Text)
}

func TestHiddenChildIsDisposed(t *testing.T) {
	rec := &batchRecorder{}
	r := runtime.NewRenderer(runtime.WithBatchCallback(rec.callback))
	parent := &testcomponents.Parent{ShowChild: true, ChildText: "bye"}

	id, err := r.AttachRoot(parent, runtime.ParameterView{})
	require.NoError(t, err)
	children := rendertree.ComponentFrames(r.CurrentFrames(id))
	require.Len(t, children, 1)
	childID := children[0].ComponentID

	parent.HideChild()
	require.NoError(t, r.FlushRenderQueue())

	assert.Contains(t, rec.last().Disposed, childID)
	assert.Nil(t, r.CurrentFrames(childID))
}

func TestDetachRootDisposesSubtreePostOrder(t *testing.T) {
	rec := &batchRecorder{}
	r := runtime.NewRenderer(runtime.WithBatchCallback(rec.callback))
	parent := &testcomponents.Parent{ShowChild: true, ChildText: "x"}

	id, err := r.AttachRoot(parent, runtime.ParameterView{})
	require.NoError(t, err)
	childID := rendertree.ComponentFrames(r.CurrentFrames(id))[0].ComponentID

	require.NoError(t, r.DetachRoot(id))
	disposed := rec.last().Disposed
	require.Equal(t, []int{childID, id}, disposed)
	assert.Empty(t, r.Roots())
}

func TestDispatchEventRendersOwner(t *testing.T) {
	rec := &batchRecorder{}
	r := runtime.NewRenderer(runtime.WithBatchCallback(rec.callback))
	counter := &testcomponents.Counter{}

	id, err := r.AttachRoot(counter, runtime.ParameterView{})
	require.NoError(t, err)

	handlerID := findHandlerID(t, r.CurrentFrames(id))
	require.NoError(t, r.DispatchEvent(handlerID, nil, &rendertree.MouseEventArgs{}))
	assert.Equal(t, 1, counter.Count)
	assert.Equal(t, 2, rec.count())
}

func TestDispatchEventUnknownHandler(t *testing.T) {
	r := runtime.NewRenderer()
	err := r.DispatchEvent(12345, &rendertree.EventFieldInfo{FieldValue: "onclick"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, runtime.ErrUnknownEventHandler)
	assert.Contains(t, err.Error(), "onclick")
}

func TestHandlerDroppedAfterRerender(t *testing.T) {
	r := runtime.NewRenderer()
	counter := &testcomponents.Counter{}
	id, err := r.AttachRoot(counter, runtime.ParameterView{})
	require.NoError(t, err)

	stale := findHandlerID(t, r.CurrentFrames(id))
	require.NoError(t, r.DispatchEvent(stale, nil, &rendertree.MouseEventArgs{}))

	// The re-render registered a fresh handler; the old id is gone.
	err = r.DispatchEvent(stale, nil, &rendertree.MouseEventArgs{})
	assert.ErrorIs(t, err, runtime.ErrUnknownEventHandler)
	fresh := findHandlerID(t, r.CurrentFrames(id))
	assert.NotEqual(t, stale, fresh)
}

func TestInitErrorSurfacesFromAttach(t *testing.T) {
	r := runtime.NewRenderer()
	_, err := r.AttachRoot(&testcomponents.Faulty{FailInit: true}, runtime.ParameterView{})
	assert.ErrorIs(t, err, testcomponents.ErrInitFailed)
	assert.Empty(t, r.Roots())
}

func TestConcurrentRequestRender(t *testing.T) {
	r := runtime.NewRenderer(runtime.WithBatchCallback((&batchRecorder{}).callback))
	ticker := &testcomponents.Ticker{}
	_, err := r.AttachRoot(ticker, runtime.ParameterView{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker.Advance()
		}()
	}
	wg.Wait()
	require.NoError(t, r.FlushRenderQueue())
	assert.Equal(t, 16, ticker.Ticks())
}

func TestBatchCallbackErrorAbortsCaller(t *testing.T) {
	boom := errors.New("boom")
	r := runtime.NewRenderer(runtime.WithBatchCallback(
		func(*rendertree.Batch, rendertree.FrameSource) error { return boom }))
	_, err := r.AttachRoot(&testcomponents.Counter{}, runtime.ParameterView{})
	assert.ErrorIs(t, err, boom)
}

func findHandlerID(t *testing.T, frames []rendertree.Frame) uint64 {
	t.Helper()
	for _, f := range frames {
		if f.Kind == rendertree.FrameAttribute && f.HandlerID != 0 {
			return f.HandlerID
		}
	}
	t.Fatal("no event handler frame in render output")
	return 0
}

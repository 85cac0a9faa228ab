package testcomponents

import (
	"sync"

	"github.com/vcrobe/nojs-testing/rendertree"
	"github.com/vcrobe/nojs-testing/runtime"
)

// Ticker re-renders when Advance is called, from any goroutine. It stands in
// for components driven by timers or async loads.
type Ticker struct {
	runtime.ComponentBase

	mu    sync.Mutex
	ticks int
}

// Advance increments the tick count and requests a re-render. Safe to call
// concurrently with renders.
func (t *Ticker) Advance() {
	t.mu.Lock()
	t.ticks++
	t.mu.Unlock()
	t.StateHasChanged()
}

// Ticks returns the current tick count.
func (t *Ticker) Ticks() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticks
}

func (t *Ticker) Render(b *rendertree.Builder) {
	b.OpenElement("div")
	b.AddAttribute("class", "ticker")
	b.AddContent("ticks: %d", t.Ticks())
	b.CloseElement()
}

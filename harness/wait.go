package harness

import (
	"fmt"
	"time"
)

// WaitForState blocks until predicate reports true, re-checking after every
// render event that affects w. It fails when timeout elapses first. Meant
// for components that render from goroutines (timers, async loads), where
// the interesting state arrives after the public call that started it
// returned.
func WaitForState(w *RenderedFragment, predicate func() bool, timeout time.Duration) error {
	err := WaitForAssertion(w, func() error {
		if !predicate() {
			return fmt.Errorf("predicate not satisfied")
		}
		return nil
	}, timeout)
	if err != nil {
		return fmt.Errorf("waiting for state on component %d: timed out after %s", w.ComponentID(), timeout)
	}
	return nil
}

// WaitForAssertion blocks until assertion returns nil, re-checking after
// every render event that affects w. On timeout it returns the assertion's
// last error wrapped with timing context.
func WaitForAssertion(w *RenderedFragment, assertion func() error, timeout time.Duration) error {
	lastErr := assertion()
	if lastErr == nil {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	signal := w.RenderSignal()
	for {
		select {
		case <-signal:
			if lastErr = assertion(); lastErr == nil {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("assertion still failing after %s: %w", timeout, lastErr)
		}
	}
}

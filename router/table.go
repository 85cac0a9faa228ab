package router

import (
	"sync"
)

// Table is an ordered route table: templates paired with an opaque target,
// resolved first-registered-first. The harness's navigation fake registers
// rendered components as targets; nothing in the table depends on that.
type Table struct {
	mu      sync.RWMutex
	entries []tableEntry
}

type tableEntry struct {
	template *Template
	target   any
}

// NewTable creates an empty route table.
func NewTable() *Table {
	return &Table{}
}

// Register parses template and appends it to the table.
func (t *Table) Register(template string, target any) error {
	parsed, err := Parse(template)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.entries = append(t.entries, tableEntry{template: parsed, target: target})
	t.mu.Unlock()
	return nil
}

// Resolve matches path against the table in registration order and returns
// the first hit's target and captured parameters.
func (t *Table) Resolve(path string) (any, Params, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, e := range t.entries {
		if params, ok := e.template.Match(path); ok {
			return e.target, params, true
		}
	}
	return nil, nil, false
}

// Len returns the number of registered routes.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

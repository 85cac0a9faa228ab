package rendertree

// Update records one component touched by a render cycle. EditCount is the
// number of frame-level differences against the component's previous output;
// zero means the component re-rendered without visible edits.
type Update struct {
	ComponentID int
	EditCount   int
}

// Batch is the engine's atomic description of one completed render cycle:
// which components were disposed and which re-rendered, with their edit
// counts. A batch is consumed exactly once by the engine's batch callback
// and must not be retained beyond that call.
type Batch struct {
	Disposed []int
	Updated  []Update
}

// Empty reports whether the cycle touched nothing.
func (b *Batch) Empty() bool {
	return len(b.Disposed) == 0 && len(b.Updated) == 0
}

package harness

import (
	"fmt"
	"reflect"

	"github.com/vcrobe/nojs-testing/rendertree"
)

// FindComponent returns the typed wrapper for the first component of type T
// below root, depth-first in document order. It fails with
// ErrComponentNotFound when the tree holds no T.
func FindComponent[T rendertree.Component](tr *TestRenderer, root *RenderedFragment) (*RenderedComponent[T], error) {
	found, err := findComponents[T](tr, root, 1)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: no %s below component %d",
			ErrComponentNotFound, reflect.TypeOf((*T)(nil)).Elem(), root.ComponentID())
	}
	return found[0], nil
}

// FindComponents returns typed wrappers for every component of type T below
// root, depth-first in document order. Zero matches is not an error.
func FindComponents[T rendertree.Component](tr *TestRenderer, root *RenderedFragment) ([]*RenderedComponent[T], error) {
	return findComponents[T](tr, root, 0)
}

func findComponents[T rendertree.Component](tr *TestRenderer, root *RenderedFragment, limit int) ([]*RenderedComponent[T], error) {
	if root == nil {
		return nil, fmt.Errorf("find: nil rendered fragment")
	}
	if err := tr.begin(); err != nil {
		return nil, err
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.disposed {
		return nil, ErrDisposed
	}

	var found []*RenderedComponent[T]
	var walk func(id int) bool
	walk = func(id int) bool {
		for _, cf := range rendertree.ComponentFrames(tr.engine.CurrentFrames(id)) {
			if instance, ok := cf.Component.(T); ok {
				found = append(found, wrapperForLocked[T](tr, cf.ComponentID, instance))
				if limit > 0 && len(found) == limit {
					return true
				}
				continue
			}
			if walk(cf.ComponentID) {
				return true
			}
		}
		return false
	}
	walk(root.ComponentID())
	return found, nil
}

// wrapperForLocked reuses an existing typed wrapper for id when one of the
// right type is already registered, otherwise registers a fresh one. Caller
// holds tr.mu. Wrappers created here have no container of their own, so
// they never rebind; a disposal of their component is final.
func wrapperForLocked[T rendertree.Component](tr *TestRenderer, id int, instance T) *RenderedComponent[T] {
	for _, h := range tr.wrappers[id] {
		if w, ok := h.(*RenderedComponent[T]); ok {
			return w
		}
	}
	w := newRenderedComponent[T](tr, id, 0, instance)
	tr.wrappers[id] = append(tr.wrappers[id], w)
	return w
}

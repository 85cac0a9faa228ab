package harness

import "errors"

// Sentinel errors returned by the harness. Callers match them with
// errors.Is; the wrapped variants carry the specifics (type names, handler
// ids, selectors).
var (
	// ErrDisposed is returned by every public operation invoked after the
	// test renderer reached its terminal disposed state.
	ErrDisposed = errors.New("test renderer has been disposed")

	// ErrComponentNotFound is returned by a typed find with zero matches.
	ErrComponentNotFound = errors.New("component not found in render tree")

	// ErrElementNotFound is returned by a selector find with zero matches.
	ErrElementNotFound = errors.New("no element matches selector")
)

// unwrapSingle unwraps an aggregate error that carries exactly one inner
// error, so callers see the original failure rather than the join wrapper.
// Aggregates with several causes are returned as-is.
func unwrapSingle(err error) error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		if inner := joined.Unwrap(); len(inner) == 1 {
			return unwrapSingle(inner[0])
		}
	}
	return err
}

package harness

import (
	"fmt"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/vcrobe/nojs-testing/rendertree"
)

// TriggerEvent reads the handler binding for eventName (for example
// "onclick") from the first element of sel and dispatches args to it.
// Elements without that binding fail rather than silently doing nothing.
func (tr *TestRenderer) TriggerEvent(sel *goquery.Selection, eventName string, args rendertree.EventArgs) error {
	if sel == nil || sel.Length() == 0 {
		return fmt.Errorf("%w: empty selection for %s", ErrElementNotFound, eventName)
	}
	first := sel.First()
	raw, ok := first.Attr(EventAttrPrefix + eventName)
	if !ok {
		tag := goquery.NodeName(first)
		return fmt.Errorf("element <%s> has no %s binding", tag, eventName)
	}
	handlerID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed %s binding %q: %w", eventName, raw, err)
	}
	field := &rendertree.EventFieldInfo{FieldValue: eventName}
	return tr.DispatchEvent(handlerID, field, args, false)
}

// Click dispatches a default click to the first element of sel.
func (tr *TestRenderer) Click(sel *goquery.Selection) error {
	return tr.TriggerEvent(sel, "onclick", &rendertree.MouseEventArgs{Button: 0, Detail: 1})
}

// Input dispatches an input event carrying value to the first element of
// sel.
func (tr *TestRenderer) Input(sel *goquery.Selection, value string) error {
	return tr.TriggerEvent(sel, "oninput", &rendertree.ChangeEventArgs{Value: value})
}

// Change dispatches a change event carrying value to the first element of
// sel.
func (tr *TestRenderer) Change(sel *goquery.Selection, value string) error {
	return tr.TriggerEvent(sel, "onchange", &rendertree.ChangeEventArgs{Value: value})
}

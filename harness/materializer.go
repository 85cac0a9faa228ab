package harness

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vcrobe/nojs-testing/rendertree"
)

// Attribute names the materializer uses to expose framework metadata as
// ordinary, inspectable markup. Tests assert on these without touching
// engine internals.
const (
	// EventAttrPrefix + event name (for example "nojs:onclick") carries the
	// binding's handler id as its value.
	EventAttrPrefix = "nojs:"

	// StopPropagationSuffix / PreventDefaultSuffix are appended to the event
	// attribute name when the binding sets the corresponding flag, rendered
	// as valueless attributes.
	StopPropagationSuffix = ":stoppropagation"
	PreventDefaultSuffix  = ":preventdefault"

	// RefCaptureAttr carries an element-reference capture identifier.
	RefCaptureAttr = "nojs:ref"
)

// voidElements never take a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// fragmentContexts maps a fragment's leading tag to the synthetic context
// element it must be parsed inside. Table parts are invalid as top-level
// markup; parsing them in the right context and taking the fragment's own
// nodes back out is how the parser contract supports them.
var fragmentContexts = map[string]atom.Atom{
	"td": atom.Tr, "th": atom.Tr,
	"tr":    atom.Tbody,
	"tbody": atom.Table, "thead": atom.Table, "tfoot": atom.Table,
	"caption": atom.Table, "colgroup": atom.Table,
	"col": atom.Colgroup,
}

// NodeTree is an immutable snapshot of a component's materialized markup.
// A wrapper owns exactly one at a time; a re-render that changes the
// component replaces the whole snapshot rather than patching it.
type NodeTree struct {
	markup string
	nodes  []*html.Node
	doc    *goquery.Document
}

// Markup returns the raw markup the snapshot was parsed from.
func (t *NodeTree) Markup() string { return t.markup }

// Nodes returns the parsed top-level nodes of the fragment.
func (t *NodeTree) Nodes() []*html.Node { return t.nodes }

// Selection returns a goquery selection spanning the whole snapshot, the
// entry point for CSS-selector queries.
func (t *NodeTree) Selection() *goquery.Selection { return t.doc.Selection }

// Materializer converts a component's render-tree frames, recursively
// including descendant component frames, into a NodeTree backed by the
// markup parser.
type Materializer struct {
	frames rendertree.FrameSource
}

// NewMaterializer creates a materializer reading frames from the given
// source.
func NewMaterializer(frames rendertree.FrameSource) *Materializer {
	return &Materializer{frames: frames}
}

// Materialize builds a fresh node tree for the component's current frames.
func (m *Materializer) Materialize(componentID int) (*NodeTree, error) {
	var sb strings.Builder
	m.writeFrames(&sb, m.frames.CurrentFrames(componentID))
	markup := sb.String()

	nodes, err := parseFragment(markup)
	if err != nil {
		return nil, fmt.Errorf("parsing materialized markup for component %d: %w", componentID, err)
	}

	// Root the fragment nodes under a synthetic document node so selector
	// queries can traverse parents without a real document.
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		root.AppendChild(n)
	}
	return &NodeTree{
		markup: markup,
		nodes:  nodes,
		doc:    goquery.NewDocumentFromNode(root),
	}, nil
}

// writeFrames renders a frame slice to markup, descending into child
// components via the frame source.
func (m *Materializer) writeFrames(sb *strings.Builder, frames []rendertree.Frame) {
	i := 0
	for i < len(frames) {
		f := frames[i]
		switch f.Kind {
		case rendertree.FrameElement:
			end := i + f.SubtreeLen
			if end <= i || end > len(frames) {
				end = len(frames)
			}
			m.writeElement(sb, frames, i, end)
			i = end
		case rendertree.FrameText:
			sb.WriteString(html.EscapeString(f.Text))
			i++
		case rendertree.FrameMarkup:
			sb.WriteString(f.Text)
			i++
		case rendertree.FrameComponent:
			m.writeFrames(sb, m.frames.CurrentFrames(f.ComponentID))
			i++
		default:
			// Attribute or reference frame outside an element; nothing to
			// render on its own.
			i++
		}
	}
}

func (m *Materializer) writeElement(sb *strings.Builder, frames []rendertree.Frame, start, end int) {
	f := frames[start]
	sb.WriteByte('<')
	sb.WriteString(f.Tag)

	// Attribute frames directly follow the element's open frame.
	body := start + 1
	for body < end {
		af := frames[body]
		if af.Kind == rendertree.FrameAttribute {
			writeAttribute(sb, af)
		} else if af.Kind == rendertree.FrameElementRef {
			fmt.Fprintf(sb, ` %s="%s"`, RefCaptureAttr, html.EscapeString(af.Name))
		} else {
			break
		}
		body++
	}
	sb.WriteByte('>')

	if voidElements[f.Tag] {
		return
	}
	m.writeFrames(sb, frames[body:end])
	sb.WriteString("</" + f.Tag + ">")
}

func writeAttribute(sb *strings.Builder, f rendertree.Frame) {
	if f.HandlerID == 0 {
		fmt.Fprintf(sb, ` %s="%s"`, f.Name, html.EscapeString(f.Value))
		return
	}
	name := EventAttrPrefix + f.Name
	fmt.Fprintf(sb, ` %s="%d"`, name, f.HandlerID)
	if f.StopPropagation {
		sb.WriteString(" " + name + StopPropagationSuffix)
	}
	if f.PreventDefault {
		sb.WriteString(" " + name + PreventDefaultSuffix)
	}
}

// parseFragment parses markup as a document fragment. The context element
// is chosen by sniffing the fragment's leading tag so table parts parse
// correctly; the returned nodes are the fragment's own, with the synthetic
// context discarded.
func parseFragment(markup string) ([]*html.Node, error) {
	ctxAtom := atom.Body
	ctxTag := "body"
	if lead, ok := leadingTag(markup); ok {
		if a, found := fragmentContexts[lead]; found {
			ctxAtom = a
			ctxTag = a.String()
		}
	}
	ctx := &html.Node{Type: html.ElementNode, Data: ctxTag, DataAtom: ctxAtom}
	return html.ParseFragment(strings.NewReader(markup), ctx)
}

// leadingTag returns the lowercased name of the first element tag in the
// markup, skipping leading whitespace and comments.
func leadingTag(markup string) (string, bool) {
	s := strings.TrimSpace(markup)
	for strings.HasPrefix(s, "<!--") {
		end := strings.Index(s, "-->")
		if end < 0 {
			return "", false
		}
		s = strings.TrimSpace(s[end+3:])
	}
	if len(s) < 2 || s[0] != '<' {
		return "", false
	}
	s = s[1:]
	end := 0
	for end < len(s) {
		c := s[end]
		if c == '>' || c == '/' || c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			break
		}
		end++
	}
	if end == 0 {
		return "", false
	}
	return strings.ToLower(s[:end]), true
}

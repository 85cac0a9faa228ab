// Package htmlcmp compares rendered markup semantically: attribute order,
// insignificant whitespace and comments do not count as differences. It is
// the assertion backend for markup expectations in component tests.
package htmlcmp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr is one normalized attribute.
type Attr struct {
	Name  string
	Value string
}

// Node is the canonical form of one markup node. Element nodes carry Tag,
// Attrs and Children; text nodes carry only Text.
type Node struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []Node
}

// Normalize converts parsed nodes to canonical form: comments dropped,
// attributes name-sorted, text whitespace collapsed, whitespace-only text
// removed.
func Normalize(nodes []*html.Node) []Node {
	var out []Node
	for _, n := range nodes {
		switch n.Type {
		case html.TextNode:
			text := collapseSpace(n.Data)
			if text == "" {
				continue
			}
			out = append(out, Node{Text: text})
		case html.ElementNode:
			e := Node{Tag: strings.ToLower(n.Data)}
			for _, a := range n.Attr {
				e.Attrs = append(e.Attrs, Attr{Name: strings.ToLower(a.Key), Value: a.Val})
			}
			sort.Slice(e.Attrs, func(i, j int) bool { return e.Attrs[i].Name < e.Attrs[j].Name })
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				e.Children = append(e.Children, Normalize([]*html.Node{c})...)
			}
			out = append(out, e)
		case html.DocumentNode:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				out = append(out, Normalize([]*html.Node{c})...)
			}
		}
	}
	return out
}

// EqualNodes reports whether two node sets are semantically equal.
func EqualNodes(expected, actual []*html.Node) bool {
	return cmp.Equal(Normalize(expected), Normalize(actual))
}

// Equal parses both markup fragments and reports whether they are
// semantically equal. The second return value is a unified diff of the
// canonical renderings, empty when equal.
func Equal(expectedMarkup, actualMarkup string) (bool, string, error) {
	expected, err := parse(expectedMarkup)
	if err != nil {
		return false, "", fmt.Errorf("parsing expected markup: %w", err)
	}
	actual, err := parse(actualMarkup)
	if err != nil {
		return false, "", fmt.Errorf("parsing actual markup: %w", err)
	}
	ne, na := Normalize(expected), Normalize(actual)
	if cmp.Equal(ne, na) {
		return true, "", nil
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(render(ne)),
		B:        difflib.SplitLines(render(na)),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil {
		return false, "", err
	}
	return false, diff, nil
}

func parse(markup string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(markup), ctx)
}

// render prints canonical nodes one per line, indented by depth, so unified
// diffs line up structurally.
func render(nodes []Node) string {
	var sb strings.Builder
	var walk func(nodes []Node, depth int)
	walk = func(nodes []Node, depth int) {
		indent := strings.Repeat("  ", depth)
		for _, n := range nodes {
			if n.Tag == "" {
				fmt.Fprintf(&sb, "%s%q\n", indent, n.Text)
				continue
			}
			sb.WriteString(indent + "<" + n.Tag)
			for _, a := range n.Attrs {
				fmt.Fprintf(&sb, " %s=%q", a.Name, a.Value)
			}
			sb.WriteString(">\n")
			walk(n.Children, depth+1)
		}
	}
	walk(nodes, 0)
	return sb.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Package htmldoc wraps a parsed HTML document behind the narrow element
// capability surface the analysis engine needs: selection, attribute
// access, ancestor traversal, id lookup and normalized text extraction.
//
// Every element node is assigned a stable integer identity in document
// order during parsing. Identities are valid for the lifetime of one
// Document and are used as finding-registry keys.
package htmldoc

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Document is a parsed HTML snapshot.
type Document struct {
	root     *html.Node
	elements []*Element
	byNode   map[*html.Node]*Element
	byDOMID  map[string]*Element
}

// Element is one element node with a stable identity.
type Element struct {
	doc  *Document
	node *html.Node
	id   int
}

// Parse builds a Document from raw markup. The underlying parser is
// forgiving: malformed fragments yield a best-effort tree rather than an
// error, so a page with broken markup still produces a valid (possibly
// empty) candidate set.
func Parse(data []byte) (*Document, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("htmldoc: parse: %w", err)
	}

	d := &Document{
		root:    root,
		byNode:  make(map[*html.Node]*Element),
		byDOMID: make(map[string]*Element),
	}
	d.index(root)
	return d, nil
}

// index walks the tree iteratively in document order, assigning identities.
func (d *Document) index(root *html.Node) {
	stack := []*html.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.Type == html.ElementNode {
			el := &Element{doc: d, node: n, id: len(d.elements)}
			d.elements = append(d.elements, el)
			d.byNode[n] = el
			if id := attrValue(n, "id"); id != "" {
				if _, taken := d.byDOMID[id]; !taken {
					d.byDOMID[id] = el
				}
			}
		}

		// Push children in reverse so the leftmost is processed first.
		var children []*html.Node
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			children = append(children, c)
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}

// Root returns the document's root element (the <html> node), or nil for
// a document with no elements at all.
func (d *Document) Root() *Element {
	if len(d.elements) == 0 {
		return nil
	}
	return d.elements[0]
}

// Elements returns all elements in document order.
func (d *Document) Elements() []*Element {
	return d.elements
}

// Element returns the element with the given identity, or nil.
func (d *Document) Element(id int) *Element {
	if id < 0 || id >= len(d.elements) {
		return nil
	}
	return d.elements[id]
}

// ByID looks an element up by its id attribute. The first occurrence of a
// duplicated id wins, matching browser getElementById behavior.
func (d *Document) ByID(domID string) *Element {
	return d.byDOMID[domID]
}

// ElementsByTags returns all elements whose tag is in the given set, in
// document order.
func (d *Document) ElementsByTags(tags ...string) []*Element {
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[strings.ToLower(t)] = true
	}
	var out []*Element
	for _, el := range d.elements {
		if want[el.Tag()] {
			out = append(out, el)
		}
	}
	return out
}

// ID returns the element's stable identity within its document.
func (e *Element) ID() int { return e.id }

// Tag returns the lowercase tag name.
func (e *Element) Tag() string { return strings.ToLower(e.node.Data) }

// Attr returns the value of an attribute, or "".
func (e *Element) Attr(name string) string {
	return attrValue(e.node, name)
}

// HasAttr reports whether the attribute is present, even when empty.
func (e *Element) HasAttr(name string) bool {
	for _, a := range e.node.Attr {
		if strings.EqualFold(a.Key, name) {
			return true
		}
	}
	return false
}

// Text returns the element's text content with whitespace normalized:
// runs of whitespace collapse to single spaces and the result is trimmed.
func (e *Element) Text() string {
	var sb strings.Builder
	collectText(e.node, &sb)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// Parent returns the nearest element ancestor, or nil at the root.
func (e *Element) Parent() *Element {
	for n := e.node.Parent; n != nil; n = n.Parent {
		if el, ok := e.doc.byNode[n]; ok {
			return el
		}
	}
	return nil
}

// Ancestors returns the element ancestors from nearest to farthest.
func (e *Element) Ancestors() []*Element {
	var out []*Element
	for p := e.Parent(); p != nil; p = p.Parent() {
		out = append(out, p)
	}
	return out
}

// Contains reports whether other is a descendant of e.
func (e *Element) Contains(other *Element) bool {
	for p := other.Parent(); p != nil; p = p.Parent() {
		if p == e {
			return true
		}
	}
	return false
}

// OuterHTML renders the element subtree back to markup.
func (e *Element) OuterHTML() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, e.node); err != nil {
		return ""
	}
	return buf.String()
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

package htmldoc

import "strings"

// Select returns all elements matching a CSS selector, in document order.
// Supported subset:
//   - tag: "main", "h1"
//   - .class: ".content"
//   - #id: "#site-nav"
//   - tag.class, tag#id
//   - tag[attr], tag[attr=val]
//   - descendant combinator: "main nav"
//
// Unknown or empty selectors match nothing.
func (d *Document) Select(selector string) []*Element {
	parts := strings.Fields(selector)
	if len(parts) == 0 {
		return nil
	}

	matches := d.matchSimple(d.Root(), parts[0])
	for i := 1; i < len(parts); i++ {
		var next []*Element
		for _, parent := range matches {
			next = append(next, d.matchSimple(parent, parts[i])...)
		}
		matches = next
	}
	return matches
}

// matchSimple finds descendants of root (root excluded) matching a single
// selector part, in document order.
func (d *Document) matchSimple(root *Element, sel string) []*Element {
	if root == nil {
		return nil
	}
	m := parseSimpleSelector(sel)
	var out []*Element
	for _, el := range d.elements[root.id+1:] {
		if !root.Contains(el) {
			continue
		}
		if el.matches(m) {
			out = append(out, el)
		}
	}
	if root == d.Root() && root.matches(m) {
		out = append([]*Element{root}, out...)
	}
	return out
}

type simpleSelector struct {
	tag     string
	id      string
	class   string
	attrKey string
	attrVal string
}

func parseSimpleSelector(sel string) simpleSelector {
	var s simpleSelector

	if idx := strings.IndexByte(sel, '['); idx >= 0 {
		attrPart := strings.TrimRight(sel[idx+1:], "]")
		sel = sel[:idx]
		if eq := strings.IndexByte(attrPart, '='); eq >= 0 {
			s.attrKey = attrPart[:eq]
			s.attrVal = strings.Trim(attrPart[eq+1:], `"'`)
		} else {
			s.attrKey = attrPart
		}
	}

	if idx := strings.IndexByte(sel, '#'); idx >= 0 {
		s.id = sel[idx+1:]
		sel = sel[:idx]
	}

	if idx := strings.IndexByte(sel, '.'); idx >= 0 {
		s.class = sel[idx+1:]
		sel = sel[:idx]
	}

	s.tag = strings.ToLower(sel)
	return s
}

func (e *Element) matches(s simpleSelector) bool {
	if s.tag != "" && e.Tag() != s.tag {
		return false
	}
	if s.id != "" && e.Attr("id") != s.id {
		return false
	}
	if s.class != "" {
		found := false
		for _, c := range strings.Fields(e.Attr("class")) {
			if c == s.class {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if s.attrKey != "" {
		if s.attrVal != "" {
			if e.Attr(s.attrKey) != s.attrVal {
				return false
			}
		} else if !e.HasAttr(s.attrKey) {
			return false
		}
	}
	return true
}

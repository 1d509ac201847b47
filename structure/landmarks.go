package structure

import (
	"strings"

	"github.com/structaudit/structaudit/findings"
	"github.com/structaudit/structaudit/htmldoc"
)

// landmarkRoles is the set of ARIA region categories treated as landmarks.
var landmarkRoles = map[string]bool{
	"main":          true,
	"navigation":    true,
	"banner":        true,
	"contentinfo":   true,
	"complementary": true,
	"region":        true,
	"search":        true,
	"form":          true,
}

// implicitRoles maps semantic elements to the role they carry without an
// explicit role attribute.
var implicitRoles = map[string]string{
	"main":   "main",
	"nav":    "navigation",
	"aside":  "complementary",
	"header": "banner",
	"footer": "contentinfo",
	"form":   "form",
}

// resolveRole determines an element's landmark role, if any. An explicit
// role attribute wins; otherwise the implicit mapping applies; a section
// counts as a region only when it has an accessible name.
func resolveRole(doc *htmldoc.Document, el *htmldoc.Element) (string, bool) {
	if r := strings.ToLower(strings.TrimSpace(el.Attr("role"))); r != "" {
		if landmarkRoles[r] {
			return r, true
		}
		return "", false
	}
	if r, ok := implicitRoles[el.Tag()]; ok {
		return r, true
	}
	if el.Tag() == "section" && accessibleName(doc, el) != "" {
		return "region", true
	}
	return "", false
}

// accessibleName resolves a landmark's label: aria-label first, then the
// space-joined trimmed texts of the elements referenced by aria-labelledby
// (unresolved ids are skipped), else empty.
func accessibleName(doc *htmldoc.Document, el *htmldoc.Element) string {
	if v := strings.TrimSpace(el.Attr("aria-label")); v != "" {
		return v
	}
	var parts []string
	for _, ref := range strings.Fields(el.Attr("aria-labelledby")) {
		target := doc.ByID(ref)
		if target == nil {
			continue
		}
		if text := target.Text(); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// analyzeLandmarks selects landmark candidates, builds the containment
// hierarchy and runs the landmark rules, writing findings under
// TagLandmarks. It returns the root nodes.
//
// Unlike headings, nesting here is DOM containment: a landmark's parent is
// its nearest ancestor element that is itself a landmark.
func analyzeLandmarks(doc *htmldoc.Document, reg *findings.Registry) []*Node {
	var (
		all    []*Node
		byElem = make(map[*htmldoc.Element]*Node)
	)

	for _, el := range doc.Elements() {
		role, ok := resolveRole(doc, el)
		if !ok {
			continue
		}
		node := &Node{
			Element:   el,
			ElementID: el.ID(),
			Role:      role,
			Label:     accessibleName(doc, el),
		}
		all = append(all, node)
		byElem[el] = node
	}

	var roots []*Node
	for _, node := range all {
		parent := nearestLandmarkAncestor(node.Element, byElem)
		if parent == nil {
			roots = append(roots, node)
		} else {
			parent.Children = append(parent.Children, node)
		}
	}

	validateLandmarks(doc, reg, all)
	return roots
}

func nearestLandmarkAncestor(el *htmldoc.Element, byElem map[*htmldoc.Element]*Node) *Node {
	for _, anc := range el.Ancestors() {
		if n, ok := byElem[anc]; ok {
			return n
		}
	}
	return nil
}

// validateLandmarks runs the landmark rules over the flattened set,
// regardless of nesting.
func validateLandmarks(doc *htmldoc.Document, reg *findings.Registry, all []*Node) {
	var mains []*Node
	for _, n := range all {
		if n.Role == "main" {
			mains = append(mains, n)
		}
	}

	switch {
	case len(mains) == 0:
		if root := doc.Root(); root != nil {
			reg.Add(root.ID(), findings.New(findings.RuleMissingMain))
		}
	case len(mains) > 1:
		// Each main is tagged; the aggregate counts the extras beyond
		// the first.
		for i, n := range mains {
			f := findings.New(findings.RuleDuplicateMain)
			if i == 0 {
				f = f.AsSecondary()
			}
			flag(reg, n, f)
		}
	}

	// Duplicate accessible names, any role. The aggregate counts one per
	// duplicated name, not per element, while every member is tagged.
	byLabel := make(map[string][]*Node)
	var labelOrder []string
	for _, n := range all {
		if n.Label == "" {
			continue
		}
		if _, seen := byLabel[n.Label]; !seen {
			labelOrder = append(labelOrder, n.Label)
		}
		byLabel[n.Label] = append(byLabel[n.Label], n)
	}
	for _, label := range labelOrder {
		group := byLabel[label]
		if len(group) < 2 {
			continue
		}
		for i, n := range group {
			f := findings.New(findings.RuleDuplicateLabel)
			if i > 0 {
				f = f.AsSecondary()
			}
			flag(reg, n, f)
		}
	}

	// Multiple unlabeled landmarks sharing a role (main excluded): within
	// a role shared by two or more landmarks, every unlabeled one beyond
	// the first needs a name to be distinguishable. The aggregate counts
	// one per offending role group.
	byRole := make(map[string][]*Node)
	var roleOrder []string
	for _, n := range all {
		if n.Role == "main" {
			continue
		}
		if _, seen := byRole[n.Role]; !seen {
			roleOrder = append(roleOrder, n.Role)
		}
		byRole[n.Role] = append(byRole[n.Role], n)
	}
	for _, role := range roleOrder {
		group := byRole[role]
		if len(group) < 2 {
			continue
		}
		var unlabeled []*Node
		for _, n := range group {
			if n.Label == "" {
				unlabeled = append(unlabeled, n)
			}
		}
		if len(unlabeled) < 2 {
			continue
		}
		for i, n := range unlabeled {
			f := findings.New(findings.RuleUnlabeledRole)
			if i > 0 {
				f = f.AsSecondary()
			}
			flag(reg, n, f)
		}
	}
}

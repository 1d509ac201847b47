package structure

import (
	"github.com/structaudit/structaudit/findings"
	"github.com/structaudit/structaudit/htmldoc"
)

var headingLevels = map[string]int{
	"h1": 1, "h2": 2, "h3": 3, "h4": 4, "h5": 5, "h6": 6,
}

// skipKey remembers a (parent level, child level) combination that was
// flagged as a skipped level, so repeated occurrences of the same pattern
// are flagged consistently rather than only on first sight.
type skipKey struct {
	parent int
	level  int
}

// analyzeHeadings builds the heading hierarchy from the document-order
// heading sequence and runs the heading rules, writing findings under
// TagHeadings. It returns the root nodes.
//
// Tree construction keeps a stack of active ancestors. For each heading:
// the nearest stack entry with a strictly smaller level is the structural
// parent; the expected level is one below the current stack top; any gap
// between expected and actual level is a direct skip. Entries at the same
// or deeper level are popped before attaching.
func analyzeHeadings(doc *htmldoc.Document, reg *findings.Registry) []*Node {
	var (
		roots      []*Node
		stack      []*Node
		levelOnes  []*Node
		knownSkips = make(map[skipKey]struct{})
	)

	for _, el := range doc.ElementsByTags("h1", "h2", "h3", "h4", "h5", "h6") {
		level, ok := headingLevels[el.Tag()]
		if !ok {
			// Unrecognized level: ignore the element rather than fail
			// the pass.
			continue
		}

		parentLevel := 0
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].Level < level {
				parentLevel = stack[i].Level
				break
			}
		}

		expected := 1
		if len(stack) > 0 {
			expected = stack[len(stack)-1].Level + 1
		}

		directSkip := level - expected
		if directSkip < 0 {
			directSkip = 0
		}

		node := &Node{Element: el, ElementID: el.ID(), Level: level}

		key := skipKey{parent: parentLevel, level: level}
		switch {
		case directSkip > 0:
			node.Skipped = directSkip
			knownSkips[key] = struct{}{}
			flag(reg, node, findings.New(findings.RuleSkippedLevel))
		default:
			// A sibling reproducing a known bad combination is flagged
			// too, with the visually skipped count recomputed from the
			// structural parent.
			if _, seen := knownSkips[key]; seen {
				node.Skipped = level - parentLevel - 1
				flag(reg, node, findings.New(findings.RuleSkippedLevel))
			}
		}

		if el.Text() == "" {
			flag(reg, node, findings.New(findings.RuleEmptyHeading))
		}

		for len(stack) > 0 && stack[len(stack)-1].Level >= level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			top := stack[len(stack)-1]
			top.Children = append(top.Children, node)
		}
		stack = append(stack, node)

		if level == 1 {
			levelOnes = append(levelOnes, node)
		}
	}

	switch {
	case len(levelOnes) == 0:
		// No element to attribute the miss to: the document root carries
		// the finding.
		if root := doc.Root(); root != nil {
			reg.Add(root.ID(), findings.New(findings.RuleMissingH1))
		}
	case len(levelOnes) > 1:
		// Every top-level heading is tagged so each can be highlighted;
		// the aggregate counts the duplicates beyond the first.
		for i, n := range levelOnes {
			f := findings.New(findings.RuleMultipleH1)
			if i == 0 {
				f = f.AsSecondary()
			}
			flag(reg, n, f)
		}
	}

	return roots
}

// Package report renders analysis results as a markdown audit report:
// aggregated findings per structure type, the heading outline, the
// landmark hierarchy, and excerpts of offending elements.
package report

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"

	"github.com/structaudit/structaudit/findings"
	"github.com/structaudit/structaudit/structure"
)

// Labels maps rule ids to human-readable text. The core only produces
// stable rule ids; unknown rules fall back to the raw id.
type Labels map[findings.RuleID]string

// DefaultLabels covers the built-in rules in English.
var DefaultLabels = Labels{
	findings.RuleMissingH1:      "No level-1 heading on the page",
	findings.RuleMultipleH1:     "More than one level-1 heading",
	findings.RuleEmptyHeading:   "Heading has no text content",
	findings.RuleSkippedLevel:   "Heading level skipped",
	findings.RuleMissingMain:    "No main region on the page",
	findings.RuleDuplicateMain:  "More than one main region",
	findings.RuleDuplicateLabel: "Landmarks share the same accessible name",
	findings.RuleUnlabeledRole:  "Multiple unlabeled landmarks share a role",
}

func (l Labels) text(rule findings.RuleID) string {
	if s, ok := l[rule]; ok {
		return s
	}
	return string(rule)
}

// Writer renders reports.
type Writer struct {
	labels Labels
	conv   *converter.Converter
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLabels sets the rule label map.
func WithLabels(l Labels) WriterOption {
	return func(w *Writer) { w.labels = l }
}

// NewWriter creates a report Writer.
func NewWriter(opts ...WriterOption) *Writer {
	w := &Writer{
		labels: DefaultLabels,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Markdown renders one analysis result for a URL.
func (w *Writer) Markdown(url string, res *structure.Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Structure audit: %s\n\n", url)
	fmt.Fprintf(&sb, "%d errors, %d warnings\n\n", res.Errors(), res.Warnings())

	w.writeAggregated(&sb, "Headings", res.Aggregated[findings.TagHeadings])
	w.writeAggregated(&sb, "Landmarks", res.Aggregated[findings.TagLandmarks])

	if len(res.Headings) > 0 {
		sb.WriteString("## Heading outline\n\n")
		w.writeNodes(&sb, res.Headings, 0, w.headingLine)
		sb.WriteByte('\n')
	}

	if len(res.Landmarks) > 0 {
		sb.WriteString("## Landmark regions\n\n")
		w.writeNodes(&sb, res.Landmarks, 0, w.landmarkLine)
		sb.WriteByte('\n')
	}

	return sb.String()
}

func (w *Writer) writeAggregated(sb *strings.Builder, title string, aggs []findings.Aggregated) {
	if len(aggs) == 0 {
		return
	}
	fmt.Fprintf(sb, "## %s findings\n\n", title)
	for _, agg := range aggs {
		marker := "WARNING"
		if agg.IsError() {
			marker = "ERROR"
		}
		fmt.Fprintf(sb, "- **%s** (%s, ×%d): %s\n",
			agg.Rule, marker, agg.Count, w.labels.text(agg.Rule))
	}
	sb.WriteByte('\n')
}

// writeNodes renders a forest as an indented list, iteratively.
func (w *Writer) writeNodes(sb *strings.Builder, roots []*structure.Node, depth int, line func(*structure.Node) string) {
	type frame struct {
		node  *structure.Node
		depth int
	}
	var stack []frame
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{roots[i], depth})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fmt.Fprintf(sb, "%s- %s\n", strings.Repeat("  ", f.depth), line(f.node))
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Children[i], f.depth + 1})
		}
	}
}

func (w *Writer) headingLine(n *structure.Node) string {
	text := w.excerpt(n)
	if text == "" {
		text = "(empty)"
	}
	line := fmt.Sprintf("h%d: %s", n.Level, text)
	return line + w.findingSuffix(n)
}

func (w *Writer) landmarkLine(n *structure.Node) string {
	line := n.Role
	if n.Label != "" {
		line += fmt.Sprintf(" %q", n.Label)
	}
	return line + w.findingSuffix(n)
}

func (w *Writer) findingSuffix(n *structure.Node) string {
	if len(n.Findings) == 0 {
		return ""
	}
	var rules []string
	for _, f := range n.Findings {
		rules = append(rules, string(f.Rule))
	}
	return fmt.Sprintf(" ⚠ [%s]", strings.Join(rules, ", "))
}

// excerpt converts the element's markup to a short markdown snippet.
func (w *Writer) excerpt(n *structure.Node) string {
	if n.Element == nil {
		return ""
	}
	md, err := w.conv.ConvertString(n.Element.OuterHTML())
	if err != nil {
		return n.Element.Text()
	}
	md = strings.Join(strings.Fields(md), " ")
	// Heading tags convert to atx markers; the outline already carries
	// the level.
	md = strings.TrimLeft(md, "# ")
	if len(md) > 120 {
		md = md[:120] + "…"
	}
	return md
}

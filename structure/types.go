// Package structure implements the structural accessibility analysis
// engine: it converts flat, document-order sequences of marked elements
// into hierarchies, detects heading and landmark defects, and writes
// findings into an injected registry.
package structure

import (
	"github.com/structaudit/structaudit/findings"
	"github.com/structaudit/structaudit/htmldoc"
)

// Type selects which structure analyses run in a pass.
type Type string

const (
	TypeHeadings  Type = "headings"
	TypeLandmarks Type = "landmarks"
)

// Node is one element in a heading or landmark hierarchy. Children are
// ordered by document order. Nodes and their findings are created fresh
// on every pass and never retained across passes.
type Node struct {
	Element   *htmldoc.Element   `json:"-"`
	ElementID int                `json:"element_id"`
	Level     int                `json:"level,omitempty"` // headings: 1-6
	Role      string             `json:"role,omitempty"`  // landmarks
	Label     string             `json:"label,omitempty"` // accessible name
	Skipped   int                `json:"skipped,omitempty"`
	Children  []*Node            `json:"children,omitempty"`
	Findings  []findings.Finding `json:"findings,omitempty"`
}

// HasError reports whether the node itself carries an error-severity
// finding.
func (n *Node) HasError() bool {
	for _, f := range n.Findings {
		if f.IsError() {
			return true
		}
	}
	return false
}

// Walk visits the node and all descendants depth-first in document order.
// The traversal is iterative so pathological nesting depth cannot blow
// the stack.
func (n *Node) Walk(fn func(*Node)) {
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(cur)
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
}

// walkAll visits every node of a forest.
func walkAll(roots []*Node, fn func(*Node)) {
	for _, r := range roots {
		r.Walk(fn)
	}
}

// flag records a finding on both the node and the registry.
func flag(reg *findings.Registry, n *Node, f findings.Finding) {
	n.Findings = append(n.Findings, f)
	reg.Add(n.ElementID, f)
}

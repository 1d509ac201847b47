package structure

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/structaudit/structaudit/findings"
	"github.com/structaudit/structaudit/htmldoc"
)

// Config configures an Analyzer.
type Config struct {
	// Registry receives per-element findings. Shared with UI layers that
	// read per-element and aggregated results between passes. Defaults to
	// a fresh registry.
	Registry *findings.Registry

	// Logger for debug messages.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Registry == nil {
		c.Registry = findings.NewRegistry()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Analyzer orchestrates analysis passes over document snapshots. Each pass
// is a logical transaction per tag: prior findings for the tag are cleared
// before revalidation so repeated passes over updated content never
// accumulate stale findings. Passes are serialized by an internal mutex so
// two passes can never interleave their clear-then-repopulate sequences.
type Analyzer struct {
	reg    *findings.Registry
	logger *slog.Logger
	mu     sync.Mutex
}

// New creates an Analyzer.
func New(cfg Config) *Analyzer {
	cfg.defaults()
	return &Analyzer{reg: cfg.Registry, logger: cfg.Logger}
}

// Registry returns the injected finding registry, for callers that pull
// per-element data independently of a fresh pass.
func (a *Analyzer) Registry() *findings.Registry { return a.reg }

// Result is the outcome of one analysis pass: per-structure-type trees for
// display plus tag-scoped aggregated findings for summaries.
type Result struct {
	Headings   []*Node                                `json:"headings,omitempty"`
	Landmarks  []*Node                                `json:"landmarks,omitempty"`
	Aggregated map[findings.Tag][]findings.Aggregated `json:"aggregated"`
}

// Errors returns the total aggregated error count across tags.
func (r *Result) Errors() int { return r.countBySeverity(findings.SeverityError) }

// Warnings returns the total aggregated warning count across tags.
func (r *Result) Warnings() int { return r.countBySeverity(findings.SeverityWarning) }

func (r *Result) countBySeverity(sev findings.Severity) int {
	total := 0
	for _, aggs := range r.Aggregated {
		for _, agg := range aggs {
			if agg.Severity == sev {
				total += agg.Count
			}
		}
	}
	return total
}

// Analyze runs the enabled structure analyses over a document snapshot.
// With no explicit types, both run. The analysis itself is synchronous and
// pure: no I/O, no retention of nodes across passes.
func (a *Analyzer) Analyze(doc *htmldoc.Document, types ...Type) *Result {
	if len(types) == 0 {
		types = []Type{TypeHeadings, TypeLandmarks}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	res := &Result{Aggregated: make(map[findings.Tag][]findings.Aggregated)}
	for _, t := range types {
		switch t {
		case TypeHeadings:
			a.reg.ClearByTag(findings.TagHeadings)
			res.Headings = analyzeHeadings(doc, a.reg)
			res.Aggregated[findings.TagHeadings] = a.reg.AggregatedByTag(findings.TagHeadings)
		case TypeLandmarks:
			a.reg.ClearByTag(findings.TagLandmarks)
			res.Landmarks = analyzeLandmarks(doc, a.reg)
			res.Aggregated[findings.TagLandmarks] = a.reg.AggregatedByTag(findings.TagLandmarks)
		default:
			a.logger.Warn("structure: unknown analysis type", "type", string(t))
		}
	}

	a.logger.Debug("structure: pass complete",
		"headings", len(res.Headings),
		"landmarks", len(res.Landmarks),
		"errors", res.Errors(),
		"warnings", res.Warnings())

	return res
}

// AnalyzeHTML parses raw markup and runs Analyze over it.
func (a *Analyzer) AnalyzeHTML(markup []byte, types ...Type) (*Result, error) {
	doc, err := htmldoc.Parse(markup)
	if err != nil {
		return nil, fmt.Errorf("structure: %w", err)
	}
	return a.Analyze(doc, types...), nil
}

// ParseTypes converts type names to Types, ignoring unknown names. An
// empty result means the caller should analyze everything.
func ParseTypes(names []string) []Type {
	var out []Type
	for _, name := range names {
		switch Type(name) {
		case TypeHeadings, TypeLandmarks:
			out = append(out, Type(name))
		}
	}
	return out
}

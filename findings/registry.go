package findings

import (
	"sort"
	"sync"
)

// ElementID is the stable identity of a markup element within one analysis
// pass. IDs are assigned in document order during parsing; the registry
// only compares them.
type ElementID = int

// Registry maps element identities to finding lists. It is shared, mutable
// state: construct one per analyzer (or per test) and inject it. All
// methods are safe for concurrent use; a full clear-then-repopulate pass
// for a tag must additionally be serialized by the caller so findings from
// two passes cannot interleave.
type Registry struct {
	mu        sync.Mutex
	byElement map[ElementID][]Finding
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byElement: make(map[ElementID][]Finding)}
}

// Store replaces the finding list for an element.
func (r *Registry) Store(element ElementID, fs []Finding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]Finding, len(fs))
	copy(list, fs)
	r.byElement[element] = list
}

// Add appends a finding to an element's list unless a finding with the
// same rule is already present.
func (r *Registry) Add(element ElementID, f Finding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byElement[element] {
		if existing.Rule == f.Rule {
			return
		}
	}
	r.byElement[element] = append(r.byElement[element], f)
}

// Get returns a copy of the element's finding list, or nil.
func (r *Registry) Get(element ElementID) []Finding {
	r.mu.Lock()
	defer r.mu.Unlock()
	fs := r.byElement[element]
	if len(fs) == 0 {
		return nil
	}
	out := make([]Finding, len(fs))
	copy(out, fs)
	return out
}

// GetByTag returns only the element's findings matching the tag.
func (r *Registry) GetByTag(element ElementID, tag Tag) []Finding {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Finding
	for _, f := range r.byElement[element] {
		if f.Tag == tag {
			out = append(out, f)
		}
	}
	return out
}

// AggregatedByTag groups all stored findings for a tag by rule and returns
// one Aggregated per distinct rule. Secondary instances mark elements
// without adding to the count. Results are sorted by rule id so repeated
// calls over the same state are deterministic.
func (r *Registry) AggregatedByTag(tag Tag) []Aggregated {
	r.mu.Lock()
	defer r.mu.Unlock()

	byRule := make(map[RuleID]*Aggregated)
	for _, fs := range r.byElement {
		for _, f := range fs {
			if f.Tag != tag {
				continue
			}
			agg, ok := byRule[f.Rule]
			if !ok {
				primary := f
				primary.Secondary = false
				agg = &Aggregated{Finding: primary}
				byRule[f.Rule] = agg
			}
			if !f.Secondary {
				agg.Count++
			}
		}
	}

	out := make([]Aggregated, 0, len(byRule))
	for _, agg := range byRule {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rule < out[j].Rule })
	return out
}

// ClearByTag removes findings with the given tag from every element and
// drops element entries that become empty.
func (r *Registry) ClearByTag(tag Tag) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for element, fs := range r.byElement {
		kept := fs[:0]
		for _, f := range fs {
			if f.Tag != tag {
				kept = append(kept, f)
			}
		}
		if len(kept) == 0 {
			delete(r.byElement, element)
		} else {
			r.byElement[element] = kept
		}
	}
}

// ClearAll empties the registry.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byElement = make(map[ElementID][]Finding)
}

// Len returns the number of elements with at least one finding.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byElement)
}

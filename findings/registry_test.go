package findings

import "testing"

func TestAdd_IdempotentPerRule(t *testing.T) {
	reg := NewRegistry()
	reg.Add(1, New(RuleEmptyHeading))
	reg.Add(1, New(RuleEmptyHeading))
	reg.Add(1, New(RuleSkippedLevel))

	fs := reg.Get(1)
	if len(fs) != 2 {
		t.Fatalf("Get: got %d findings, want 2: %v", len(fs), fs)
	}
}

func TestStore_ReplacesList(t *testing.T) {
	reg := NewRegistry()
	reg.Add(1, New(RuleEmptyHeading))
	reg.Store(1, []Finding{New(RuleSkippedLevel)})

	fs := reg.Get(1)
	if len(fs) != 1 || fs[0].Rule != RuleSkippedLevel {
		t.Fatalf("Store: got %v, want single skippedLevel", fs)
	}
}

func TestGet_MissingElement(t *testing.T) {
	reg := NewRegistry()
	if fs := reg.Get(42); fs != nil {
		t.Fatalf("Get on empty registry: got %v, want nil", fs)
	}
}

func TestGetByTag(t *testing.T) {
	reg := NewRegistry()
	reg.Add(1, New(RuleEmptyHeading))
	reg.Add(1, New(RuleDuplicateMain))

	fs := reg.GetByTag(1, TagLandmarks)
	if len(fs) != 1 || fs[0].Rule != RuleDuplicateMain {
		t.Fatalf("GetByTag(landmarks): got %v", fs)
	}
	fs = reg.GetByTag(1, TagHeadings)
	if len(fs) != 1 || fs[0].Rule != RuleEmptyHeading {
		t.Fatalf("GetByTag(headings): got %v", fs)
	}
}

func TestAggregatedByTag_CountsPrimariesPerElement(t *testing.T) {
	reg := NewRegistry()
	reg.Add(1, New(RuleEmptyHeading))
	reg.Add(2, New(RuleEmptyHeading))
	reg.Add(3, New(RuleSkippedLevel))
	reg.Add(4, New(RuleMissingMain)) // other tag

	aggs := reg.AggregatedByTag(TagHeadings)
	if len(aggs) != 2 {
		t.Fatalf("got %d aggregated rules, want 2: %v", len(aggs), aggs)
	}
	// Sorted by rule id: emptyHeading < skippedLevel.
	if aggs[0].Rule != RuleEmptyHeading || aggs[0].Count != 2 {
		t.Errorf("emptyHeading: got %+v, want count 2", aggs[0])
	}
	if aggs[1].Rule != RuleSkippedLevel || aggs[1].Count != 1 {
		t.Errorf("skippedLevel: got %+v, want count 1", aggs[1])
	}
}

func TestAggregatedByTag_SecondarySkipsCount(t *testing.T) {
	reg := NewRegistry()
	reg.Add(1, New(RuleDuplicateMain).AsSecondary())
	reg.Add(2, New(RuleDuplicateMain))

	aggs := reg.AggregatedByTag(TagLandmarks)
	if len(aggs) != 1 {
		t.Fatalf("got %d aggregated rules, want 1", len(aggs))
	}
	if aggs[0].Count != 1 {
		t.Errorf("count: got %d, want 1 (secondary excluded)", aggs[0].Count)
	}
	if aggs[0].Secondary {
		t.Error("aggregated finding must not be marked secondary")
	}
	// Both elements still carry the finding.
	if len(reg.Get(1)) != 1 || len(reg.Get(2)) != 1 {
		t.Error("both elements should carry the finding")
	}
}

func TestClearByTag_LeavesOtherTag(t *testing.T) {
	reg := NewRegistry()
	reg.Add(1, New(RuleEmptyHeading))
	reg.Add(1, New(RuleDuplicateMain))
	reg.Add(2, New(RuleSkippedLevel))

	reg.ClearByTag(TagHeadings)

	if fs := reg.Get(1); len(fs) != 1 || fs[0].Rule != RuleDuplicateMain {
		t.Fatalf("element 1 after clear: got %v, want only duplicateMain", fs)
	}
	// Element 2 only had a headings finding: entry dropped entirely.
	if fs := reg.Get(2); fs != nil {
		t.Fatalf("element 2 after clear: got %v, want nil", fs)
	}
	if reg.Len() != 1 {
		t.Fatalf("Len: got %d, want 1", reg.Len())
	}
}

func TestClearAll(t *testing.T) {
	reg := NewRegistry()
	reg.Add(1, New(RuleEmptyHeading))
	reg.ClearAll()
	if reg.Len() != 0 {
		t.Fatalf("Len after ClearAll: got %d", reg.Len())
	}
}

func TestNew_UnknownRule(t *testing.T) {
	f := New("someFutureRule")
	if f.Rule != "someFutureRule" || f.Severity != "" || f.Tag != "" {
		t.Fatalf("unknown rule: got %+v", f)
	}
}

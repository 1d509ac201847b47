package structure

import (
	"testing"

	"github.com/structaudit/structaudit/findings"
)

func TestAnalyze_BothTypesByDefault(t *testing.T) {
	a := New(Config{})
	doc := parseDoc(t, `<body><main><h1>title</h1></main></body>`)

	res := a.Analyze(doc)

	if len(res.Headings) != 1 {
		t.Errorf("headings: got %d roots, want 1", len(res.Headings))
	}
	if len(res.Landmarks) != 1 {
		t.Errorf("landmarks: got %d roots, want 1", len(res.Landmarks))
	}
	if res.Errors() != 0 || res.Warnings() != 0 {
		t.Errorf("counts: got %d errors %d warnings, want clean", res.Errors(), res.Warnings())
	}
}

func TestAnalyze_TypeSelection(t *testing.T) {
	a := New(Config{})
	doc := parseDoc(t, `<body><p>nothing structural</p></body>`)

	res := a.Analyze(doc, TypeHeadings)

	if res.Landmarks != nil {
		t.Error("landmark trees must not be built for a headings-only pass")
	}
	if _, ok := res.Aggregated[findings.TagLandmarks]; ok {
		t.Error("landmark aggregates must not be present for a headings-only pass")
	}
	aggs := res.Aggregated[findings.TagHeadings]
	if len(aggs) != 1 || aggs[0].Rule != findings.RuleMissingH1 {
		t.Fatalf("heading aggregates: got %v, want missingH1", aggs)
	}
	if res.Errors() != 1 {
		t.Errorf("errors: got %d, want 1", res.Errors())
	}
}

func TestAnalyze_RepassClearsStaleFindings(t *testing.T) {
	a := New(Config{})

	bad := parseDoc(t, `<body><h1>a</h1><h3>skip</h3></body>`)
	res := a.Analyze(bad, TypeHeadings)
	if res.Errors() == 0 {
		t.Fatal("first pass should report the skipped level")
	}

	// The document was fixed; the same analyzer revalidates and prior
	// findings for the tag are gone.
	good := parseDoc(t, `<body><h1>a</h1><h2>fixed</h2></body>`)
	res = a.Analyze(good, TypeHeadings)
	if got := res.Aggregated[findings.TagHeadings]; len(got) != 0 {
		t.Fatalf("second pass aggregates: got %v, want none", got)
	}
	if a.Registry().Len() != 0 {
		t.Errorf("registry entries after clean pass: got %d, want 0", a.Registry().Len())
	}
}

func TestAnalyze_TagIsolation(t *testing.T) {
	a := New(Config{})
	doc := parseDoc(t, `<body><p>empty page</p></body>`)

	a.Analyze(doc)

	// A headings-only repass must leave the landmark findings intact.
	fixed := parseDoc(t, `<body><h1>title</h1></body>`)
	res := a.Analyze(fixed, TypeHeadings)

	if got := res.Aggregated[findings.TagHeadings]; len(got) != 0 {
		t.Fatalf("heading aggregates: got %v, want none", got)
	}
	aggs := a.Registry().AggregatedByTag(findings.TagLandmarks)
	if len(aggs) != 1 || aggs[0].Rule != findings.RuleMissingMain {
		t.Fatalf("landmark aggregates after headings repass: got %v, want missingMain kept", aggs)
	}
}

func TestAnalyze_SharedRegistry(t *testing.T) {
	reg := findings.NewRegistry()
	a := New(Config{Registry: reg})
	doc := parseDoc(t, `<body><main><h1></h1></main></body>`)

	res := a.Analyze(doc)

	if a.Registry() != reg {
		t.Fatal("analyzer must use the injected registry")
	}
	h1 := res.Headings[0]
	got := reg.GetByTag(h1.ElementID, findings.TagHeadings)
	if len(got) != 1 || got[0].Rule != findings.RuleEmptyHeading {
		t.Fatalf("registry findings for h1: got %v, want emptyHeading", got)
	}
}

func TestAnalyzeHTML(t *testing.T) {
	a := New(Config{})

	res, err := a.AnalyzeHTML([]byte(`<body><main><h1>ok</h1></main></body>`))
	if err != nil {
		t.Fatalf("AnalyzeHTML: %v", err)
	}
	if res.Errors() != 0 {
		t.Errorf("errors: got %d, want 0", res.Errors())
	}
}

func TestParseTypes(t *testing.T) {
	got := ParseTypes([]string{"headings", "bogus", "landmarks"})
	if len(got) != 2 || got[0] != TypeHeadings || got[1] != TypeLandmarks {
		t.Fatalf("ParseTypes: got %v", got)
	}
	if out := ParseTypes(nil); out != nil {
		t.Fatalf("ParseTypes(nil): got %v, want nil", out)
	}
}

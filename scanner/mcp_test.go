package scanner

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/structaudit/structaudit/contentcache"
)

var testMCPImpl = &mcp.Implementation{Name: "structaudit-test", Version: "0.1.0"}

func mcpSession(t *testing.T, svc *Service) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testMCPImpl, nil)
	svc.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if result.IsError {
		t.Fatalf("CallTool(%s) tool error: %v", name, result.Content)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

// --- structaudit_rules ---

func TestMCP_Rules(t *testing.T) {
	session := mcpSession(t, New(Config{}))

	text := mcpCallTool(t, session, "structaudit_rules", map[string]any{})

	var resp struct {
		Rules []struct {
			ID       string `json:"id"`
			Severity string `json:"severity"`
			Tag      string `json:"tag"`
		} `json:"rules"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Rules) != 8 {
		t.Fatalf("rules: got %d, want 8", len(resp.Rules))
	}
	byID := make(map[string]string)
	for _, r := range resp.Rules {
		byID[r.ID] = r.Severity
	}
	if byID["missingH1"] != "error" {
		t.Errorf("missingH1 severity: got %q", byID["missingH1"])
	}
	if byID["multipleH1"] != "warning" {
		t.Errorf("multipleH1 severity: got %q", byID["multipleH1"])
	}
}

// --- structaudit_analyze ---

func TestMCP_Analyze(t *testing.T) {
	session := mcpSession(t, New(Config{}))

	text := mcpCallTool(t, session, "structaudit_analyze", map[string]any{
		"html": `<body><main><h1>a</h1><h3>deep</h3></main></body>`,
	})

	var resp struct {
		Headings   []json.RawMessage `json:"headings"`
		Aggregated map[string][]struct {
			Rule  string `json:"rule"`
			Count int    `json:"count"`
		} `json:"aggregated"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Headings) != 1 {
		t.Errorf("heading roots: got %d, want 1", len(resp.Headings))
	}
	aggs := resp.Aggregated["headings"]
	if len(aggs) != 1 || aggs[0].Rule != "skippedLevel" || aggs[0].Count != 1 {
		t.Errorf("heading aggregates: got %+v, want skippedLevel count 1", aggs)
	}
}

func TestMCP_Analyze_MissingHTML(t *testing.T) {
	session := mcpSession(t, New(Config{}))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "structaudit_analyze",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Fatal("missing html must be a tool error")
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok || !strings.Contains(tc.Text, "html is required") {
		t.Errorf("error: got %v", result.Content)
	}
}

// --- structaudit_scan ---

func TestMCP_Scan(t *testing.T) {
	cache := contentcache.New(func(ctx context.Context, url string) ([]byte, error) {
		return []byte(`<body><nav>orphan</nav></body>`), nil
	})
	session := mcpSession(t, New(Config{Cache: cache}))

	text := mcpCallTool(t, session, "structaudit_scan", map[string]any{
		"url": "https://example.com",
	})

	var resp struct {
		URL    string `json:"url"`
		Errors int    `json:"errors"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.URL != "https://example.com" {
		t.Errorf("url: got %q", resp.URL)
	}
	// missingH1 and missingMain.
	if resp.Errors != 2 {
		t.Errorf("errors: got %d, want 2", resp.Errors)
	}
}

func TestMCP_Scan_NoCache(t *testing.T) {
	session := mcpSession(t, New(Config{}))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "structaudit_scan",
		Arguments: map[string]any{"url": "https://example.com"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Fatal("scan without a cache must be a tool error")
	}
}

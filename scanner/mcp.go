package scanner

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/structaudit/structaudit/findings"
	"github.com/structaudit/structaudit/kit"
	"github.com/structaudit/structaudit/structure"
)

// RegisterMCP registers scanner tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerAnalyzeTool(srv)
	s.registerScanTool(srv)
	s.registerRulesTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// --- analyze (raw markup) ---

type analyzeReq struct {
	HTML  string   `json:"html"`
	Types []string `json:"types,omitempty"`
}

func (s *Service) registerAnalyzeTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "structaudit_analyze",
		Description: "Analyze raw HTML for heading-hierarchy and ARIA-landmark defects.",
		InputSchema: inputSchema(map[string]any{
			"html":  map[string]any{"type": "string", "description": "Raw page markup"},
			"types": map[string]any{"type": "array", "items": map[string]any{"type": "string", "enum": []string{"headings", "landmarks"}}},
		}, []string{"html"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*analyzeReq)
		return s.AnalyzeHTML([]byte(r.HTML), structure.ParseTypes(r.Types)...)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r analyzeReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		if r.HTML == "" {
			return nil, fmt.Errorf("html is required")
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- scan (fetch + analyze + persist) ---

type scanReq struct {
	URL   string   `json:"url"`
	Types []string `json:"types,omitempty"`
}

func (s *Service) registerScanTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "structaudit_scan",
		Description: "Fetch a page through the content cache, analyze its structure and persist the scan.",
		InputSchema: inputSchema(map[string]any{
			"url":   map[string]any{"type": "string", "description": "Page URL to audit"},
			"types": map[string]any{"type": "array", "items": map[string]any{"type": "string", "enum": []string{"headings", "landmarks"}}},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*scanReq)
		return s.ScanURL(ctx, r.URL, structure.ParseTypes(r.Types)...)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r scanReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		if r.URL == "" {
			return nil, fmt.Errorf("url is required")
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- rules ---

func (s *Service) registerRulesTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "structaudit_rules",
		Description: "List the structural accessibility rules this auditor checks.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return map[string]any{"rules": findings.Rules()}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: struct{}{}}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/cyberia-to/publish-quartz/internal/catalog"
	"github.com/cyberia-to/publish-quartz/internal/publish"
	"github.com/cyberia-to/publish-quartz/internal/service"
	"github.com/cyberia-to/publish-quartz/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	db, err := catalog.Open("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RecordAll([]catalog.Entry{
		{Name: "Garden", Path: "Garden.md", Links: []string{"Projects"}},
		{Name: "Projects", Path: "Projects.md"},
	}); err != nil {
		t.Fatal(err)
	}

	idx := testutil.Index(t,
		"pages/Projects.md", "tags:: work\nalias:: proj\n\n- TODO ship",
		"pages/Garden.md", "tags:: home\n\n- [[Projects]]",
	)
	return New(service.NewStatic(publish.NewGraph(idx), service.WithCatalog(db)), "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are
	// invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "run_query":
		result, err = srv.runQuery(ctx, req)
	case "resolve_link":
		result, err = srv.resolveLink(ctx, req)
	case "transform_markdown":
		result, err = srv.transformMarkdown(ctx, req)
	case "list_documents":
		result, err = srv.listDocuments(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "get_query_syntax":
		result, err = srv.getQuerySyntax(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestRunQuery(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "run_query", map[string]interface{}{
		"query":   "{{query (page-tags [[work]])}}",
		"options": "query-table:: false",
	})
	if r.IsError {
		t.Fatalf("run_query error: %s", resultText(r))
	}
	var res service.QueryResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Matches) != 1 || res.Matches[0] != "Projects" || res.Layout != "list" {
		t.Errorf("result = %+v", res)
	}
}

func TestRunQuery_MissingQuery(t *testing.T) {
	r := callTool(t, testServer(t), "run_query", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error for missing query")
	}
}

func TestResolveLink(t *testing.T) {
	r := callTool(t, testServer(t), "resolve_link", map[string]interface{}{"link": "proj"})
	var res service.Resolution
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if !res.Found || res.Target != "Projects" {
		t.Errorf("resolution = %+v", res)
	}
}

func TestTransformMarkdown(t *testing.T) {
	r := callTool(t, testServer(t), "transform_markdown", map[string]interface{}{"markdown": "- see [[proj]]"})
	if got := resultText(r); got != "- see [[Projects|proj]]" {
		t.Errorf("transform = %q", got)
	}
}

func TestListDocuments(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "list_documents", map[string]interface{}{})
	if got := resultText(r); got != "Projects\nGarden" {
		t.Errorf("list = %q", got)
	}

	r = callTool(t, srv, "list_documents", map[string]interface{}{"tag": "home"})
	if got := resultText(r); got != "Garden" {
		t.Errorf("tagged list = %q", got)
	}
}

func TestGetBacklinks(t *testing.T) {
	r := callTool(t, testServer(t), "get_backlinks", map[string]interface{}{"name": "proj"})
	if got := resultText(r); got != "Garden" {
		t.Errorf("backlinks = %q, want Garden", got)
	}
}

func TestGetQuerySyntax(t *testing.T) {
	r := callTool(t, testServer(t), "get_query_syntax", nil)
	if !strings.Contains(resultText(r), "(page-tags") {
		t.Error("syntax reference missing page-tags")
	}
}

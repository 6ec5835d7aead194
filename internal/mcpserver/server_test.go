package mcpserver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/raido/internal/compliance"
	"github.com/starford/raido/internal/linkhealth"
	"github.com/starford/raido/internal/override"
	"github.com/starford/raido/internal/testutil"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()

	linkSrv := testutil.LinkServer(t)
	provider := testutil.Dataset(t, compliance.Record{
		ID:               "ESP",
		Name:             "Spain",
		EInvoicingStatus: "mandated",
		References: []compliance.Reference{
			{Kind: override.KindLegislation, Title: "Ley 25/2013", URL: linkSrv.URL + "/ley"},
		},
		SourceUpdatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	store := testutil.FileStore(t)
	cache := linkhealth.NewCache(linkhealth.NewChecker(2*time.Second, ""), 4)

	return New(provider, store, cache), linkSrv.URL
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "resolve_link":
		result, err = srv.resolveLink(ctx, req)
	case "check_link":
		result, err = srv.checkLink(ctx, req)
	case "list_overrides":
		result, err = srv.listOverrides(ctx, req)
	case "create_override":
		result, err = srv.createOverride(ctx, req)
	case "country_status":
		result, err = srv.countryStatus(ctx, req)
	case "get_curation_contract":
		result, err = srv.getCurationContract(ctx, req)
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

func TestCreateOverrideAndResolve(t *testing.T) {
	srv, linkURL := testServer(t)

	r := callTool(t, srv, "create_override", map[string]interface{}{
		"country":      "esp",
		"kind":         override.KindLegislation,
		"original_url": linkURL + "/ley",
		"custom_url":   linkURL + "/consolidated",
		"title":        "Ley 25/2013",
	})
	if r.IsError {
		t.Fatalf("create_override failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "active for ESP") {
		t.Errorf("create result = %q", resultText(r))
	}

	r = callTool(t, srv, "resolve_link", map[string]interface{}{
		"country": "ESP",
		"kind":    override.KindLegislation,
		"url":     linkURL + "/ley",
	})
	text := resultText(r)
	if !strings.Contains(text, linkURL+"/consolidated") || !strings.Contains(text, `"overridden": true`) {
		t.Errorf("resolve_link = %s", text)
	}
}

func TestResolveLinkWithoutOverride(t *testing.T) {
	srv, linkURL := testServer(t)

	r := callTool(t, srv, "resolve_link", map[string]interface{}{
		"country": "ESP",
		"kind":    override.KindLegislation,
		"url":     linkURL + "/ley",
	})
	text := resultText(r)
	if !strings.Contains(text, `"overridden": false`) {
		t.Errorf("resolve_link = %s", text)
	}
}

func TestCheckLink(t *testing.T) {
	srv, linkURL := testServer(t)

	r := callTool(t, srv, "check_link", map[string]interface{}{"url": linkURL + "/dead"})
	if !strings.Contains(resultText(r), string(linkhealth.ClassNotFound)) {
		t.Errorf("check_link = %s", resultText(r))
	}
}

func TestListOverridesEmpty(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_overrides", map[string]interface{}{})
	if resultText(r) != "no overrides" {
		t.Errorf("list result = %q", resultText(r))
	}
}

func TestCountryStatus(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "country_status", map[string]interface{}{"country": "esp"})
	text := resultText(r)
	if !strings.Contains(text, "Spain") || !strings.Contains(text, "resolvedReferences") {
		t.Errorf("country_status = %s", text)
	}

	r = callTool(t, srv, "country_status", map[string]interface{}{"country": "xxx"})
	if !r.IsError {
		t.Error("expected error for unknown country")
	}
}

func TestCreateOverrideValidation(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_override", map[string]interface{}{
		"country":      "ESP",
		"kind":         "blog",
		"original_url": "https://a.example",
		"custom_url":   "https://b.example",
		"title":        "x",
	})
	if !r.IsError {
		t.Error("expected validation error for unknown kind")
	}
}

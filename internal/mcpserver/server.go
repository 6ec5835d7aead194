// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Raido tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/compliance"
	"github.com/starford/raido/internal/linkhealth"
	"github.com/starford/raido/internal/linkresolver"
	"github.com/starford/raido/internal/override"
)

// Server wraps the MCP server with Raido tools.
type Server struct {
	mcp       *server.MCPServer
	provider  compliance.Provider
	overrides *override.Store
	links     *linkhealth.Cache
	resolver  *linkresolver.Resolver
}

// New creates a new MCP server with all Raido tools registered.
func New(provider compliance.Provider, overrides *override.Store, links *linkhealth.Cache) *Server {
	s := &Server{
		provider:  provider,
		overrides: overrides,
		links:     links,
		resolver:  linkresolver.New(overrides, links),
	}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("resolve_link",
		mcp.WithDescription("Resolve a reference URL for a country: returns the curated "+
			"replacement if one exists and is fresh enough, otherwise the original."),
		mcp.WithString("country", mcp.Required(), mcp.Description("ISO country code (e.g. ESP)")),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Reference kind: format-spec, legislation, or news")),
		mcp.WithString("url", mcp.Required(), mcp.Description("Original reference URL")),
	), s.resolveLink)

	s.mcp.AddTool(mcp.NewTool("check_link",
		mcp.WithDescription("Probe a URL and classify it as ok, not-found, or unknown."),
		mcp.WithString("url", mcp.Required(), mcp.Description("URL to probe")),
	), s.checkLink)

	s.mcp.AddTool(mcp.NewTool("list_overrides",
		mcp.WithDescription("List curated link overrides, active and soft-deleted, optionally filtered by country."),
		mcp.WithString("country", mcp.Description("Optional ISO country code filter")),
	), s.listOverrides)

	s.mcp.AddTool(mcp.NewTool("create_override",
		mcp.WithDescription("Create or replace a curated link override. Follow the curation "+
			"rules first via the get_curation_contract tool or the raido://link-kinds resource."),
		mcp.WithString("country", mcp.Required(), mcp.Description("ISO country code")),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Reference kind: format-spec, legislation, or news")),
		mcp.WithString("original_url", mcp.Required(), mcp.Description("URL of the broken or outdated reference")),
		mcp.WithString("custom_url", mcp.Required(), mcp.Description("Curated replacement URL")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Human-readable title of the reference")),
		mcp.WithString("notes", mcp.Description("Optional curation notes")),
	), s.createOverride)

	s.mcp.AddTool(mcp.NewTool("country_status",
		mcp.WithDescription("Return the e-invoicing compliance record for a country, "+
			"with each reference link resolved and its last known health."),
		mcp.WithString("country", mcp.Required(), mcp.Description("ISO country code")),
	), s.countryStatus)

	s.mcp.AddTool(mcp.NewTool("get_curation_contract",
		mcp.WithDescription("Returns the link curation contract. Call this before "+
			"creating overrides to ensure correct kinds and URL handling."),
	), s.getCurationContract)

	// Resource: link curation contract.
	s.mcp.AddResource(
		mcp.NewResource("raido://link-kinds", "Link Curation Contract",
			mcp.WithResourceDescription("Reference kinds and curation rules for link overrides."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLinkKindsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) resolveLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	country, err := req.RequireString("country")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sourceUpdated time.Time
	if rec, recErr := s.provider.Record(ctx, country); recErr == nil {
		sourceUpdated = rec.SourceUpdatedAt
	}

	resolved := s.resolver.Resolve(country, compliance.Reference{Kind: kind, URL: rawURL}, sourceUpdated)
	out, _ := json.MarshalIndent(resolved, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) checkLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.links.CheckOne(ctx, rawURL)
	status, _ := s.links.Cached(rawURL)
	out, _ := json.MarshalIndent(status, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listOverrides(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	country := ""
	if c, err := req.RequireString("country"); err == nil {
		country = c
	}
	entries := s.overrides.List(country)
	if len(entries) == 0 {
		return mcp.NewToolResultText("no overrides"), nil
	}
	out, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createOverride(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	create := override.CreateRequest{}
	var err error
	if create.CountryCode, err = req.RequireString("country"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if create.Kind, err = req.RequireString("kind"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if create.OriginalURL, err = req.RequireString("original_url"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if create.CustomURL, err = req.RequireString("custom_url"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if create.Title, err = req.RequireString("title"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if notes, notesErr := req.RequireString("notes"); notesErr == nil {
		create.Notes = notes
	}

	entry, err := s.overrides.CreateOrUpdate(create)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("override %s active for %s %s", entry.ID, entry.CountryCode, entry.Kind)), nil
}

func (s *Server) countryStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	country, err := req.RequireString("country")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.provider.Record(ctx, country)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", country)), nil
	}

	status := struct {
		compliance.Record
		ResolvedReferences []linkresolver.ResolvedReference `json:"resolvedReferences"`
	}{
		Record:             *rec,
		ResolvedReferences: s.resolver.ResolveRecord(rec),
	}
	out, _ := json.MarshalIndent(status, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getCurationContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LinkKindsContract), nil
}

func (s *Server) readLinkKindsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "raido://link-kinds",
			MIMEType: "text/markdown",
			Text:     LinkKindsContract,
		},
	}, nil
}

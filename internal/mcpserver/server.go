// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Othala tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/othala/internal/modservice"
)

// Server wraps the MCP server with Othala tools.
type Server struct {
	mcp *server.MCPServer
	svc *modservice.Service
}

// New creates a new MCP server with all Othala tools registered.
func New(svc *modservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Othala",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_mods",
		mcp.WithDescription("List every loaded mod in resolved load order."),
	), s.listMods)

	s.mcp.AddTool(mcp.NewTool("get_manifest",
		mcp.WithDescription("Read the parsed manifest of a loaded mod."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Mod id as declared in mod.json")),
	), s.getManifest)

	s.mcp.AddTool(mcp.NewTool("get_load_order",
		mcp.WithDescription("Return the resolved load order of the current session, one mod id per line."),
	), s.getLoadOrder)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read a content document after all mod patches were applied."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Content key (e.g. items/sword)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List all content keys, optionally filtered by prefix."),
		mcp.WithString("prefix", mcp.Description("Optional key prefix (e.g. items/)")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("search_content",
		mcp.WithDescription("Full-text search through patched content documents."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchContent)

	s.mcp.AddTool(mcp.NewTool("get_manifest_contract",
		mcp.WithDescription("Returns the canonical mod manifest and patch file contract. "+
			"Call this before authoring mod.json or patch files to ensure correct structure."),
	), s.getManifestContract)

	// Resource: manifest format contract.
	s.mcp.AddResource(
		mcp.NewResource("othala://manifest-format", "Mod Manifest Contract",
			mcp.WithResourceDescription("Canonical mod.json and patch file format that all mods must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readManifestFormatResource,
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

func (s *Server) listMods(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mods, err := s.svc.ListMods(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(mods, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getManifest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mod, err := s.svc.GetMod(ctx, id)
	if err != nil {
		return mcp.NewToolResultError("mod not loaded: " + id), nil
	}
	out, _ := json.MarshalIndent(mod, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getLoadOrder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	order := s.svc.LoadOrder(ctx)
	if len(order) == 0 {
		return mcp.NewToolResultText("no mods loaded"), nil
	}
	return mcp.NewToolResultText(strings.Join(order, "\n")), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.GetDocument(ctx, key)
	if err != nil {
		return mcp.NewToolResultError("not found: " + key), nil
	}
	return mcp.NewToolResultText(string(doc)), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefix := ""
	if p, err := req.RequireString("prefix"); err == nil {
		prefix = p
	}

	var keys []string
	for _, k := range s.svc.DocumentKeys(ctx) {
		if prefix == "" || strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return mcp.NewToolResultText("no documents"), nil
	}
	return mcp.NewToolResultText(strings.Join(keys, "\n")), nil
}

func (s *Server) searchContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getManifestContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ManifestFormatContract), nil
}

func (s *Server) readManifestFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "othala://manifest-format",
			MIMEType: "text/markdown",
			Text:     ManifestFormatContract,
		},
	}, nil
}

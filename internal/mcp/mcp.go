// Package mcp implements the Model Context Protocol server for the
// resolution service.
//
// The MCP server exposes the intent pipeline and the taxonomy through
// MCP tools and resources, allowing MCP-compatible AI agents to classify
// messages and browse the catalog.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/miwake-ai/miwake/internal/batch"
	"github.com/miwake-ai/miwake/internal/catalog"
	"github.com/miwake-ai/miwake/internal/embedding"
	"github.com/miwake-ai/miwake/internal/engine"
)

// Server wraps the MCP server with the resolution pipeline.
type Server struct {
	mcpServer *mcpserver.MCPServer
	resolver  batch.Resolver
	searcher  engine.VectorSearcher
	embedder  embedding.Provider
	catalog   *catalog.Catalog
	logger    *slog.Logger
}

// New creates and configures a new MCP server with all resources and tools.
func New(resolver batch.Resolver, searcher engine.VectorSearcher, embedder embedding.Provider, cat *catalog.Catalog, logger *slog.Logger) *Server {
	s := &Server{
		resolver: resolver,
		searcher: searcher,
		embedder: embedder,
		catalog:  cat,
		logger:   logger,
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"miwake",
		"0.1.0",
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithToolCapabilities(true),
	)

	s.registerResources()
	s.registerTools()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

func (s *Server) registerResources() {
	// miwake://catalog — the full intent taxonomy.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"miwake://catalog",
			"Intent Catalog",
			mcplib.WithResourceDescription("The full intent taxonomy with descriptions and example utterances"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleCatalog,
	)

	// miwake://catalog/{category} — intents for one category.
	s.mcpServer.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			"miwake://catalog/{category}",
			"Category Intents",
			mcplib.WithTemplateDescription("Intents within a single category"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		s.handleCategory,
	)
}

func (s *Server) handleCatalog(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(map[string]any{
		"intents":    s.catalog.All(),
		"categories": s.catalog.Categories(),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal catalog: %w", err)
	}

	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      "miwake://catalog",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleCategory(_ context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	uri := request.Params.URI
	category := strings.TrimPrefix(uri, "miwake://catalog/")
	if category == "" || category == uri {
		return nil, fmt.Errorf("mcp: invalid category URI: %s", uri)
	}

	intents := s.catalog.ByCategory(strings.ToUpper(category))
	if len(intents) == 0 {
		return nil, fmt.Errorf("mcp: unknown category: %s", category)
	}

	data, err := json.MarshalIndent(map[string]any{
		"category": strings.ToUpper(category),
		"intents":  intents,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal category: %w", err)
	}

	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

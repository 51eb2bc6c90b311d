package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/miwake-ai/miwake/internal/model"
)

func (s *Server) registerTools() {
	// resolve_intent — run the full decision pipeline.
	s.mcpServer.AddTool(
		mcplib.NewTool("resolve_intent",
			mcplib.WithDescription("Classify a customer message through the full pipeline: entities, sentiment, compound detection, conflict resolution, and tenant policy"),
			mcplib.WithString("text", mcplib.Description("The customer message"), mcplib.Required()),
			mcplib.WithString("tenant_id", mcplib.Description("Tenant whose policy applies (defaults to 'default')")),
			mcplib.WithString("customer_email", mcplib.Description("Customer email for context enrichment")),
			mcplib.WithString("customer_tier", mcplib.Description("Customer tier: VIP, PREMIUM, STANDARD, NEW, AT_RISK, FLAGGED")),
			mcplib.WithString("order_ids", mcplib.Description("Comma-separated order IDs")),
		),
		s.handleResolveIntent,
	)

	// classify_intent_fast — similarity search only, no pipeline.
	s.mcpServer.AddTool(
		mcplib.NewTool("classify_intent_fast",
			mcplib.WithDescription("Fast intent lookup by vector similarity only. Returns the top matching intents without entity extraction, compound detection, or policy."),
			mcplib.WithString("text", mcplib.Description("The customer message"), mcplib.Required()),
			mcplib.WithNumber("top_k", mcplib.Description("Maximum matches to return (default 5)")),
		),
		s.handleClassifyFast,
	)
}

func (s *Server) handleResolveIntent(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	text := request.GetString("text", "")
	if text == "" {
		return errorResult("text is required"), nil
	}

	tenantID := request.GetString("tenant_id", "default")

	var orderIDs []string
	if raw := request.GetString("order_ids", ""); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				orderIDs = append(orderIDs, id)
			}
		}
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to generate embedding: %v", err)), nil
	}

	result, err := s.resolver.Resolve(ctx, model.Request{
		RequestID:     uuid.New().String(),
		TenantID:      tenantID,
		Channel:       "mcp",
		Text:          text,
		Embedding:     vec,
		CustomerEmail: request.GetString("customer_email", ""),
		CustomerTier:  model.NormalizeTier(request.GetString("customer_tier", "")),
		OrderIDs:      orderIDs,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("resolution failed: %v", err)), nil
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(data)},
		},
	}, nil
}

func (s *Server) handleClassifyFast(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	text := request.GetString("text", "")
	if text == "" {
		return errorResult("text is required"), nil
	}

	topK := request.GetInt("top_k", 5)
	if topK <= 0 {
		topK = 5
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to generate embedding: %v", err)), nil
	}

	matches, err := s.searcher.Search(ctx, vec, topK)
	if err != nil {
		return errorResult(fmt.Sprintf("search failed: %v", err)), nil
	}

	data, _ := json.MarshalIndent(map[string]any{
		"matches": matches,
		"total":   len(matches),
	}, "", "  ")
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(data)},
		},
	}, nil
}

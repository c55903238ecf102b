// Package mcptool exposes the question interface as MCP tools over stdio.
package mcptool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"salesintel/guardrails"
	"salesintel/insights"
	"salesintel/models"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

// AskTool answers executive sales questions from the loaded session.
type AskTool struct {
	engine func() *insights.Engine
}

// NewAskTool creates the tool. engine is called per request so the tool
// always answers from the current session.
func NewAskTool(engine func() *insights.Engine) *AskTool {
	return &AskTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *AskTool) Definition() mcp.Tool {
	return mcp.NewTool("ask_sales_question",
		mcp.WithDescription(
			"Answer an executive question about the sales pipeline: win rate, deal risk, "+
				"stalled deals, ACV, lead source performance or overall pipeline health. "+
				"Returns a JSON object with the narrative, chart data and health score.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question in plain English. Example: 'Which deals are most likely to be lost?'"),
		),
	)
}

// Handle processes the ask_sales_question tool call.
func (t *AskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(req.GetString("query", ""))
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	engine := t.engine()
	if engine == nil {
		return mcp.NewToolResultError("no sales data session is loaded"), nil
	}

	resp, err := engine.Ask(ctx, query)
	if errors.Is(err, models.ErrUnrecognizedIntent) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"This question is outside the supported scope. Try one of:\n- %s",
			strings.Join(guardrails.Suggestions(), "\n- "),
		)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("answering question: %w", err)
	}

	payload, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// SuggestionsTool lists questions known to be in scope.
type SuggestionsTool struct{}

// Definition returns the MCP tool definition for registration.
func (SuggestionsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_sales_questions",
		mcp.WithDescription("List example questions that ask_sales_question can answer."),
	)
}

// Handle processes the list_sales_questions tool call.
func (SuggestionsTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("- " + strings.Join(guardrails.Suggestions(), "\n- ")), nil
}

// NewServer builds an MCP server with both tools registered.
func NewServer(engine func() *insights.Engine) *server.MCPServer {
	s := server.NewMCPServer(
		"salesintel",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	ask := NewAskTool(engine)
	s.AddTool(ask.Definition(), ask.Handle)

	suggestions := SuggestionsTool{}
	s.AddTool(suggestions.Definition(), suggestions.Handle)

	return s
}

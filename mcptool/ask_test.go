package mcptool

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"salesintel/insights"
	"salesintel/models"
)

func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func testEngine(t *testing.T) *insights.Engine {
	t.Helper()
	created := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	deals := []models.Deal{
		{ID: "A", CreatedDate: &created, Outcome: "won", DealAmount: 4000, SalesCycleDays: 25, LeadSource: "Referral"},
		{ID: "B", CreatedDate: &created, Outcome: "lost", DealAmount: 9000, SalesCycleDays: 70, LeadSource: "Outbound"},
		{ID: "C", CreatedDate: &created, Outcome: "open", DealAmount: 6000, SalesCycleDays: 30, LeadSource: "Partner"},
	}
	s, err := insights.NewSession(context.Background(), deals)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return insights.NewEngine(s, nil)
}

func call(tool *AskTool, args map[string]interface{}) (*mcp.CallToolResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return tool.Handle(context.Background(), req)
}

func TestAskTool_Definition(t *testing.T) {
	def := NewAskTool(nil).Definition()
	if def.Name != "ask_sales_question" {
		t.Errorf("name = %q, want ask_sales_question", def.Name)
	}
}

func TestAskTool_Handle_InScope(t *testing.T) {
	engine := testEngine(t)
	tool := NewAskTool(func() *insights.Engine { return engine })

	result, err := call(tool, map[string]interface{}{"query": "Are deals stalling?"})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	var resp models.InsightResponse
	if err := json.Unmarshal([]byte(getResultText(result)), &resp); err != nil {
		t.Fatalf("result is not an insight response: %v", err)
	}
	if resp.Intent != models.IntentStalled {
		t.Errorf("intent = %q, want stalled", resp.Intent)
	}
	if resp.Narrative.ExecutiveSummary == "" {
		t.Error("narrative summary should not be empty")
	}
}

func TestAskTool_Handle_OutOfScope(t *testing.T) {
	engine := testEngine(t)
	tool := NewAskTool(func() *insights.Engine { return engine })

	result, err := call(tool, map[string]interface{}{"query": "Who won the game last night?"})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected an error result for an out-of-scope question")
	}
	if !strings.Contains(getResultText(result), "outside the supported scope") {
		t.Errorf("unexpected text: %s", getResultText(result))
	}
}

func TestAskTool_Handle_MissingInputs(t *testing.T) {
	tool := NewAskTool(func() *insights.Engine { return nil })

	result, _ := call(tool, map[string]interface{}{})
	if !isErrorResult(result) {
		t.Error("expected error result for missing query")
	}

	result, _ = call(tool, map[string]interface{}{"query": "win rate?"})
	if !isErrorResult(result) {
		t.Error("expected error result when no session is loaded")
	}
}

func TestSuggestionsTool(t *testing.T) {
	result, err := SuggestionsTool{}.Handle(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !strings.Contains(getResultText(result), "Analyze pipeline health") {
		t.Errorf("suggestions missing: %s", getResultText(result))
	}
}

func TestNewServer(t *testing.T) {
	if NewServer(func() *insights.Engine { return nil }) == nil {
		t.Fatal("expected a server")
	}
}

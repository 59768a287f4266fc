package gemini

import (
	"testing"

	"google.golang.org/genai"

	"github.com/velumlaw/counsel/internal/port/llm"
)

func TestToContents_MapsRolesAndParts(t *testing.T) {
	messages := []llm.Message{
		llm.TextMessage(llm.RoleUser, "pytanie"),
		{Role: llm.RoleModel, Parts: []llm.Part{
			{ToolCall: &llm.ToolCall{Name: "search_legal_acts", Args: map[string]any{"keyword": "urlop"}}},
		}},
		{Role: llm.RoleUser, Parts: []llm.Part{
			{ToolResult: &llm.ToolResult{Name: "search_legal_acts", Response: map[string]any{"acts": []any{}}}},
		}},
	}

	contents := toContents(messages)
	if len(contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(contents))
	}
	if contents[0].Role != "user" || contents[0].Parts[0].Text != "pytanie" {
		t.Fatalf("unexpected first content: %+v", contents[0])
	}
	if contents[1].Parts[0].FunctionCall == nil || contents[1].Parts[0].FunctionCall.Name != "search_legal_acts" {
		t.Fatal("expected function call part")
	}
	if contents[2].Parts[0].FunctionResponse == nil {
		t.Fatal("expected function response part")
	}
}

func TestToContents_InlineBlob(t *testing.T) {
	messages := []llm.Message{
		{Role: llm.RoleUser, Parts: []llm.Part{
			{Blob: &llm.Blob{MIMEType: "application/pdf", Data: []byte{0x25, 0x50}}},
			{Text: "co zawiera ten dokument?"},
		}},
	}

	contents := toContents(messages)
	if len(contents) != 1 || len(contents[0].Parts) != 2 {
		t.Fatalf("unexpected contents: %+v", contents)
	}
	if contents[0].Parts[0].InlineData == nil || contents[0].Parts[0].InlineData.MIMEType != "application/pdf" {
		t.Fatal("expected inline data first")
	}
}

func TestToContents_SkipsEmptyMessages(t *testing.T) {
	contents := toContents([]llm.Message{{Role: llm.RoleUser}})
	if len(contents) != 0 {
		t.Fatalf("expected empty message dropped, got %d", len(contents))
	}
}

func TestToDeclarations(t *testing.T) {
	decls := toDeclarations([]llm.ToolDecl{{
		Name:        "get_act_content",
		Description: "Fetch act text",
		Properties: map[string]llm.Property{
			"publisher": {Type: "string", Description: "journal code"},
			"year":      {Type: "integer", Description: "publication year"},
			"in_force":  {Type: "boolean", Description: "only acts in force"},
		},
		Required: []string{"publisher", "year"},
	}})

	if len(decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(decls))
	}
	d := decls[0]
	if d.Parameters.Type != genai.TypeObject {
		t.Fatalf("expected object schema, got %v", d.Parameters.Type)
	}
	if d.Parameters.Properties["year"].Type != genai.TypeInteger {
		t.Fatal("expected integer year")
	}
	if d.Parameters.Properties["in_force"].Type != genai.TypeBoolean {
		t.Fatal("expected boolean in_force")
	}
	if len(d.Parameters.Required) != 2 {
		t.Fatalf("expected 2 required, got %d", len(d.Parameters.Required))
	}
}

func TestFromCandidate_TextAndCalls(t *testing.T) {
	content := &genai.Content{
		Role: "model",
		Parts: []*genai.Part{
			{Text: "sprawdzam "},
			{Text: "ustawę"},
			{FunctionCall: &genai.FunctionCall{Name: "search_court_rulings", Args: map[string]any{"query": "zachowek"}}},
		},
	}

	result := fromCandidate(content)
	if result.Text != "sprawdzam ustawę" {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if len(result.ToolCalls) != 1 || result.ToolCalls[0].Name != "search_court_rulings" {
		t.Fatalf("unexpected tool calls: %+v", result.ToolCalls)
	}
}

// Package gemini implements the llm.Provider port on top of the Google
// Gemini API (google.golang.org/genai).
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/velumlaw/counsel/internal/port/llm"
)

// Provider dispatches chat-completion requests to the Gemini API.
type Provider struct {
	client *genai.Client
}

// New creates a Gemini-backed provider.
func New(ctx context.Context, apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Provider{client: client}, nil
}

// Generate performs one model dispatch.
func (p *Provider) Generate(ctx context.Context, req llm.Request) (*llm.Result, error) {
	config := &genai.GenerateContentConfig{
		Temperature: req.Temperature,
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSONOutput {
		config.ResponseMIMEType = "application/json"
	}
	if len(req.Tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: toDeclarations(req.Tools)}}
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, toContents(req.Messages), config)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("empty candidate response")
	}

	result := fromCandidate(resp.Candidates[0].Content)
	if resp.UsageMetadata != nil {
		result.Usage = llm.Usage{
			PromptTokens:    int64(resp.UsageMetadata.PromptTokenCount),
			CandidateTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:     int64(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return result, nil
}

// --- conversion helpers ---

func toContents(messages []llm.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		c := &genai.Content{Role: m.Role}
		for _, p := range m.Parts {
			switch {
			case p.Blob != nil:
				c.Parts = append(c.Parts, &genai.Part{
					InlineData: &genai.Blob{MIMEType: p.Blob.MIMEType, Data: p.Blob.Data},
				})
			case p.ToolCall != nil:
				c.Parts = append(c.Parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{Name: p.ToolCall.Name, Args: p.ToolCall.Args},
				})
			case p.ToolResult != nil:
				c.Parts = append(c.Parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{Name: p.ToolResult.Name, Response: p.ToolResult.Response},
				})
			case p.Text != "":
				c.Parts = append(c.Parts, genai.NewPartFromText(p.Text))
			}
		}
		if len(c.Parts) > 0 {
			contents = append(contents, c)
		}
	}
	return contents
}

func toDeclarations(tools []llm.ToolDecl) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		props := make(map[string]*genai.Schema, len(t.Properties))
		for name, prop := range t.Properties {
			props[name] = &genai.Schema{
				Type:        schemaType(prop.Type),
				Description: prop.Description,
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   t.Required,
			},
		})
	}
	return decls
}

func schemaType(t string) genai.Type {
	switch t {
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "number":
		return genai.TypeNumber
	default:
		return genai.TypeString
	}
}

func fromCandidate(c *genai.Content) *llm.Result {
	result := &llm.Result{}
	for _, p := range c.Parts {
		if p.Text != "" {
			result.Text += p.Text
		}
		if p.FunctionCall != nil {
			result.ToolCalls = append(result.ToolCalls, llm.ToolCall{
				Name: p.FunctionCall.Name,
				Args: p.FunctionCall.Args,
			})
		}
	}
	return result
}

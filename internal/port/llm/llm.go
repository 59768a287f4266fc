// Package llm defines the provider-neutral chat-completion port.
//
// The port mirrors what the engine needs from a chat API: a system
// directive, alternating multi-turn history with multimodal parts, a
// declared tool schema, and a result carrying text, tool-call requests and
// token usage. The Gemini adapter maps these onto google.golang.org/genai.
package llm

import "context"

// Message roles on the wire.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Blob is inline binary content (an attached case document).
type Blob struct {
	MIMEType string
	Data     []byte
}

// ToolCall is a provider request to invoke a declared tool.
type ToolCall struct {
	Name string
	Args map[string]any
}

// ToolResult answers a ToolCall in the next dispatch.
type ToolResult struct {
	Name     string
	Response map[string]any
}

// Part is one piece of a message: exactly one field is set.
type Part struct {
	Text       string
	Blob       *Blob
	ToolCall   *ToolCall
	ToolResult *ToolResult
}

// Message is a single history entry.
type Message struct {
	Role  string
	Parts []Part
}

// TextMessage builds a single-part text message.
func TextMessage(role, text string) Message {
	return Message{Role: role, Parts: []Part{{Text: text}}}
}

// Text concatenates the message's text parts.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		out += p.Text
	}
	return out
}

// Property describes one tool parameter.
type Property struct {
	Type        string // "string", "integer", "boolean"
	Description string
}

// ToolDecl is a declared tool the model may request.
type ToolDecl struct {
	Name        string
	Description string
	Properties  map[string]Property
	Required    []string
}

// Request is one provider dispatch.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	Tools       []ToolDecl
	Temperature *float32
	// JSONOutput constrains the response MIME type to application/json.
	JSONOutput bool
}

// Usage is the provider-reported token accounting for one dispatch.
type Usage struct {
	PromptTokens    int64
	CandidateTokens int64
	TotalTokens     int64
}

// Result is one provider response: either text, or tool-call requests that
// the caller must execute and feed back.
type Result struct {
	Text      string
	ToolCalls []ToolCall
	Usage     Usage
}

// Provider is the chat-completion collaborator.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

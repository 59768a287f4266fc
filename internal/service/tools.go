package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/velumlaw/counsel/internal/domain/chat"
	"github.com/velumlaw/counsel/internal/port/legal"
	"github.com/velumlaw/counsel/internal/port/llm"
)

// Tool names declared to the provider.
const (
	toolSearchActs    = "search_legal_acts"
	toolActContent    = "get_act_content"
	toolSearchRulings = "search_court_rulings"
	toolJudgmentText  = "get_judgment_text"
)

// ToolRegistry dispatches provider tool calls to the legal-research
// collaborators.
type ToolRegistry struct {
	acts    legal.ActsProvider
	rulings legal.RulingsProvider
}

// NewToolRegistry creates a ToolRegistry.
func NewToolRegistry(acts legal.ActsProvider, rulings legal.RulingsProvider) *ToolRegistry {
	return &ToolRegistry{acts: acts, rulings: rulings}
}

// FullSurface declares all four legal-research tools.
func (t *ToolRegistry) FullSurface() []llm.ToolDecl {
	return []llm.ToolDecl{
		searchActsDecl, actContentDecl, searchRulingsDecl, judgmentTextDecl,
	}
}

// ReducedSurface declares the two search tools only; used by the strategic
// conversation variant.
func (t *ToolRegistry) ReducedSurface() []llm.ToolDecl {
	return []llm.ToolDecl{searchActsDecl, searchRulingsDecl}
}

// Execute runs a single tool call and reports any source citations the call
// produced. A failing or unknown tool never aborts the loop: the error is
// logged and an empty result object is returned.
func (t *ToolRegistry) Execute(ctx context.Context, call llm.ToolCall) (llm.ToolResult, []chat.Citation) {
	result, cites, err := t.dispatch(ctx, call)
	if err != nil {
		slog.Warn("tool call degraded to empty result",
			"tool", call.Name, "error", err)
		return llm.ToolResult{Name: call.Name, Response: map[string]any{}}, nil
	}
	return llm.ToolResult{Name: call.Name, Response: result}, cites
}

func (t *ToolRegistry) dispatch(ctx context.Context, call llm.ToolCall) (map[string]any, []chat.Citation, error) {
	switch call.Name {
	case toolSearchActs:
		acts, err := t.acts.SearchActs(ctx,
			argString(call.Args, "keyword"),
			argInt(call.Args, "year"),
			argBool(call.Args, "inForce"))
		if err != nil {
			return nil, nil, err
		}
		cites := make([]chat.Citation, 0, len(acts))
		for _, a := range acts {
			cites = append(cites, chat.Citation{
				Title: fmt.Sprintf("%s %s %d poz. %d", a.Title, a.Publisher, a.Year, a.Pos),
			})
		}
		return map[string]any{"acts": acts}, cites, nil

	case toolActContent:
		content, err := t.acts.ActContent(ctx,
			argString(call.Args, "publisher"),
			argInt(call.Args, "year"),
			argInt(call.Args, "pos"))
		if err != nil {
			return nil, nil, err
		}
		return map[string]any{"content": content}, nil, nil

	case toolSearchRulings:
		rulings, err := t.rulings.SearchRulings(ctx,
			argString(call.Args, "query"),
			argString(call.Args, "courtType"))
		if err != nil {
			return nil, nil, err
		}
		cites := make([]chat.Citation, 0, len(rulings))
		for _, r := range rulings {
			cites = append(cites, chat.Citation{Title: r.CaseSign, URL: r.URL})
		}
		return map[string]any{"rulings": rulings}, cites, nil

	case toolJudgmentText:
		text, err := t.rulings.JudgmentText(ctx, argString(call.Args, "judgmentId"))
		if err != nil {
			return nil, nil, err
		}
		return map[string]any{"text": text}, nil, nil

	default:
		slog.Warn("provider requested undeclared tool", "tool", call.Name)
		return map[string]any{}, nil, nil
	}
}

var searchActsDecl = llm.ToolDecl{
	Name:        toolSearchActs,
	Description: "Search the national register of legal acts by keyword.",
	Properties: map[string]llm.Property{
		"keyword": {Type: "string", Description: "Search phrase, e.g. an act title fragment."},
		"year":    {Type: "integer", Description: "Restrict to acts published in this year."},
		"inForce": {Type: "boolean", Description: "Restrict to acts currently in force."},
	},
	Required: []string{"keyword"},
}

var actContentDecl = llm.ToolDecl{
	Name:        toolActContent,
	Description: "Fetch the consolidated text of a legal act by its register address.",
	Properties: map[string]llm.Property{
		"publisher": {Type: "string", Description: "Register code, e.g. DU or MP."},
		"year":      {Type: "integer", Description: "Publication year."},
		"pos":       {Type: "integer", Description: "Position within the year."},
	},
	Required: []string{"publisher", "year", "pos"},
}

var searchRulingsDecl = llm.ToolDecl{
	Name:        toolSearchRulings,
	Description: "Search published court rulings by free-text query.",
	Properties: map[string]llm.Property{
		"query":     {Type: "string", Description: "Free-text search query."},
		"courtType": {Type: "string", Description: "Optional court type filter, e.g. COMMON or SUPREME."},
	},
	Required: []string{"query"},
}

var judgmentTextDecl = llm.ToolDecl{
	Name:        toolJudgmentText,
	Description: "Fetch the full text of a judgment by its identifier.",
	Properties: map[string]llm.Property{
		"judgmentId": {Type: "string", Description: "Judgment identifier from a prior search."},
	},
	Required: []string{"judgmentId"},
}

func argString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func argInt(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func argBool(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

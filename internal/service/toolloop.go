package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	clotel "github.com/velumlaw/counsel/internal/adapter/otel"
	"github.com/velumlaw/counsel/internal/domain"
	"github.com/velumlaw/counsel/internal/domain/chat"
	"github.com/velumlaw/counsel/internal/port/llm"
)

// maxToolRounds is the hard ceiling on provider round trips per turn. On
// reaching it while the provider still requests tools, the loop terminates
// with whatever text is available. The value is a deliberate policy, not a
// tunable.
const maxToolRounds = 5

// LoopResult is the outcome of one tool-calling loop run. Citations
// accumulate from every search-tool result seen along the way.
type LoopResult struct {
	Text      string
	Citations []chat.Citation
	Usage     llm.Usage
	Rounds    int
}

// ToolLoop drives provider dispatches and tool execution until the provider
// yields text or the round bound is reached.
type ToolLoop struct {
	provider llm.Provider
	tools    *ToolRegistry
	metrics  *clotel.Metrics
}

// NewToolLoop creates a ToolLoop.
func NewToolLoop(provider llm.Provider, tools *ToolRegistry) *ToolLoop {
	return &ToolLoop{provider: provider, tools: tools}
}

// SetMetrics attaches metric instruments. Optional.
func (l *ToolLoop) SetMetrics(m *clotel.Metrics) {
	l.metrics = m
}

// Run executes the loop. Usage accumulates across every dispatch, including
// rounds that only produced tool calls. Tool failures degrade to empty
// results; only provider failures surface as errors.
func (l *ToolLoop) Run(ctx context.Context, req llm.Request) (*LoopResult, error) {
	messages := req.Messages
	var usage llm.Usage
	var lastText string
	var citations []chat.Citation

	for round := 1; round <= maxToolRounds; round++ {
		res, err := l.provider.Generate(ctx, llm.Request{
			Model:       req.Model,
			System:      req.System,
			Messages:    messages,
			Tools:       req.Tools,
			Temperature: req.Temperature,
			JSONOutput:  req.JSONOutput,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrProvider, err)
		}

		usage.PromptTokens += res.Usage.PromptTokens
		usage.CandidateTokens += res.Usage.CandidateTokens
		usage.TotalTokens += res.Usage.TotalTokens
		if res.Text != "" {
			lastText = res.Text
		}

		if len(res.ToolCalls) == 0 {
			return &LoopResult{Text: res.Text, Citations: citations, Usage: usage, Rounds: round}, nil
		}

		if round == maxToolRounds {
			// Fail-open: bound reached while tools are still requested.
			slog.Warn("tool loop bound reached, returning best-available text",
				"rounds", round, "pending_tools", len(res.ToolCalls))
			break
		}

		results, cites := l.executeRound(ctx, res.ToolCalls)
		citations = append(citations, cites...)

		// The model turn with its tool calls, then one user turn carrying
		// every result of the round.
		callParts := make([]llm.Part, 0, len(res.ToolCalls))
		for i := range res.ToolCalls {
			callParts = append(callParts, llm.Part{ToolCall: &res.ToolCalls[i]})
		}
		resultParts := make([]llm.Part, 0, len(results))
		for i := range results {
			resultParts = append(resultParts, llm.Part{ToolResult: &results[i]})
		}
		messages = append(messages,
			llm.Message{Role: llm.RoleModel, Parts: callParts},
			llm.Message{Role: llm.RoleUser, Parts: resultParts},
		)
	}

	return &LoopResult{Text: lastText, Citations: citations, Usage: usage, Rounds: maxToolRounds}, nil
}

// executeRound fans the round's tool calls out concurrently and joins at a
// barrier: every call completes (successfully or degraded-empty) before the
// next dispatch.
func (l *ToolLoop) executeRound(ctx context.Context, calls []llm.ToolCall) ([]llm.ToolResult, []chat.Citation) {
	results := make([]llm.ToolResult, len(calls))
	cites := make([][]chat.Citation, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			_, span := clotel.StartToolCallSpan(gctx, call.Name)
			results[i], cites[i] = l.tools.Execute(gctx, call)
			span.End()
			if l.metrics != nil {
				l.metrics.ToolCalls.Add(gctx, 1, metric.WithAttributes(
					attribute.String("tool", call.Name)))
			}
			return nil
		})
	}
	// Execute never returns an error; the group is used for the barrier.
	_ = g.Wait()

	var flat []chat.Citation
	for _, c := range cites {
		flat = append(flat, c...)
	}
	return results, flat
}

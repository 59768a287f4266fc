package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "counsel"

// StartTurnSpan starts a span for one conversation turn.
func StartTurnSpan(ctx context.Context, conversationKey, mode, model string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "turn",
		trace.WithAttributes(
			attribute.String("conversation.key", conversationKey),
			attribute.String("turn.mode", mode),
			attribute.String("turn.model", model),
		),
	)
}

// StartToolCallSpan starts a span for a legal-research tool call within a turn.
func StartToolCallSpan(ctx context.Context, tool string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "toolcall",
		trace.WithAttributes(
			attribute.String("toolcall.tool", tool),
		),
	)
}

// StartClassifySpan starts a span for case classification.
func StartClassifySpan(ctx context.Context, language string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "classify",
		trace.WithAttributes(
			attribute.String("classify.language", language),
		),
	)
}

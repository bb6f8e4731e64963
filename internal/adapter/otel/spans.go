package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "agentdeck"

// StartOperationSpan starts a span for one agent operation (list, launch,
// stop, ...), tagged with the backend that served it.
func StartOperationSpan(ctx context.Context, op, agentID string, simulation bool) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, op,
		trace.WithAttributes(
			attribute.String("agent.id", agentID),
			attribute.Bool("backend.simulation", simulation),
		),
	)
}

// StartSummarySpan starts a span for a conversation summarization.
func StartSummarySpan(ctx context.Context, agentID, model string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "summarize",
		trace.WithAttributes(
			attribute.String("agent.id", agentID),
			attribute.String("llm.model", model),
		),
	)
}

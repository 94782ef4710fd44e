package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer name used for all mailpilot spans.
const TracerName = "github.com/teemow/mailpilot"

// Span attribute keys.
const (
	SpanAttrCapability = "mailpilot.capability"
	SpanAttrBackend    = "mailpilot.mailbox.backend"
	SpanAttrOperation  = "mailpilot.mailbox.operation"
	SpanAttrPurpose    = "mailpilot.model.purpose"
	SpanAttrModel      = "mailpilot.model.name"
	SpanAttrTurn       = "mailpilot.turn_id"
	SpanAttrRecords    = "mailpilot.records"
)

// StartSpan starts a span with the given name and attributes.
// The caller ends it with defer span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartTurnSpan starts the root span of one orchestrator turn.
func StartTurnSpan(ctx context.Context, turnID string) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, "agent.turn",
		trace.WithAttributes(attribute.String(SpanAttrTurn, turnID)),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartCapabilitySpan starts a span for a capability execution.
func StartCapabilitySpan(ctx context.Context, capability string) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, "capability."+capability,
		trace.WithAttributes(attribute.String(SpanAttrCapability, capability)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartMailboxSpan starts a client span for a mailbox backend call.
func StartMailboxSpan(ctx context.Context, backend, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, len(attrs)+2)
	all = append(all,
		attribute.String(SpanAttrBackend, backend),
		attribute.String(SpanAttrOperation, operation),
	)
	all = append(all, attrs...)

	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, "mailbox."+backend+"."+operation,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartModelSpan starts a client span for a language model call.
func StartModelSpan(ctx context.Context, purpose, model string) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, "model."+purpose,
		trace.WithAttributes(
			attribute.String(SpanAttrPurpose, purpose),
			attribute.String(SpanAttrModel, model),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// EndSpan sets the span status from err and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		SetSpanError(span, err)
	} else {
		SetSpanSuccess(span)
	}
	span.End()
}

// GetTraceID returns the trace ID from the current span in context, or "".
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID from the current span in context, or "".
func GetSpanID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		return sc.SpanID().String()
	}
	return ""
}

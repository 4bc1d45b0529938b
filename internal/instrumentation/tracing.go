package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the default tracer name for the beacon service.
const TracerName = "beacon"

// Span attribute keys.
const (
	// SpanAttrRunID is the pipeline run identifier attribute.
	SpanAttrRunID = "pipeline.run_id"

	// SpanAttrStage is the pipeline stage attribute.
	SpanAttrStage = "pipeline.stage"

	// SpanAttrProvider is the mail provider attribute.
	SpanAttrProvider = "mail.provider"

	// SpanAttrModel is the model name attribute.
	SpanAttrModel = "llm.model"

	// SpanAttrBatch is the batch index attribute.
	SpanAttrBatch = "llm.batch"

	// SpanAttrTool is the MCP tool name attribute.
	SpanAttrTool = "mcp.tool"

	// SpanAttrStatus is the operation status attribute.
	SpanAttrStatus = "status"
)

// StartSpan starts a span with the given name and attributes. The caller is
// responsible for ending the span with defer span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartRunSpan starts the root span for a pipeline run.
func StartRunSpan(ctx context.Context, runID, provider string) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String(SpanAttrRunID, runID),
			attribute.String(SpanAttrProvider, provider),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartStageSpan starts a span for one pipeline stage.
func StartStageSpan(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrStage, stage))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "stage."+stage, trace.WithAttributes(allAttrs...))
}

// StartBatchSpan starts a span for one model batch call.
func StartBatchSpan(ctx context.Context, model string, batch int) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "llm.analyze_batch",
		trace.WithAttributes(
			attribute.String(SpanAttrModel, model),
			attribute.Int(SpanAttrBatch, batch),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartToolSpan starts a span for an MCP tool invocation.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrTool, toolName))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "tool."+toolName,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindServer),
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

// GetTraceID returns the trace ID from the current span in context, or the
// empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID from the current span in context, or the
// empty string if no valid span is present.
func GetSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().SpanID().String()
	}
	return ""
}

package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrMethod   = "method"
	attrPath     = "path"
	attrStatus   = "status"
	attrProvider = "provider"
	attrReason   = "reason"
	attrMode     = "mode"
	attrModel    = "model"
	attrTool     = "tool"
	attrAccount  = "account"
)

// Metrics provides methods for recording observability metrics. All
// recorders are safe on a zero-value Metrics; they simply do nothing.
type Metrics struct {
	// Pipeline metrics
	pipelineRunsTotal   metric.Int64Counter
	pipelineRunDuration metric.Float64Histogram
	messagesFetched     metric.Int64Counter
	messagesSkipped     metric.Int64Counter
	messagesTriaged     metric.Int64Counter

	// Model metrics
	llmRequestsTotal   metric.Int64Counter
	llmRequestDuration metric.Float64Histogram

	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// MCP tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels controls whether high-cardinality labels are included.
	detailedLabels bool
}

// NewMetrics creates a Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.pipelineRunsTotal, err = meter.Int64Counter(
		"pipeline_runs_total",
		metric.WithDescription("Total number of triage pipeline runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline_runs_total counter: %w", err)
	}

	m.pipelineRunDuration, err = meter.Float64Histogram(
		"pipeline_run_duration_seconds",
		metric.WithDescription("Full pipeline run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline_run_duration_seconds histogram: %w", err)
	}

	m.messagesFetched, err = meter.Int64Counter(
		"messages_fetched_total",
		metric.WithDescription("Total number of messages fetched from mail providers"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messages_fetched_total counter: %w", err)
	}

	m.messagesSkipped, err = meter.Int64Counter(
		"messages_skipped_total",
		metric.WithDescription("Total number of messages skipped before analysis"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messages_skipped_total counter: %w", err)
	}

	m.messagesTriaged, err = meter.Int64Counter(
		"messages_triaged_total",
		metric.WithDescription("Total number of messages triaged"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messages_triaged_total counter: %w", err)
	}

	m.llmRequestsTotal, err = meter.Int64Counter(
		"llm_requests_total",
		metric.WithDescription("Total number of model batch requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm_requests_total counter: %w", err)
	}

	m.llmRequestDuration, err = meter.Float64Histogram(
		"llm_request_duration_seconds",
		metric.WithDescription("Model batch request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm_request_duration_seconds histogram: %w", err)
	}

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordPipelineRun records one full pipeline run.
func (m *Metrics) RecordPipelineRun(ctx context.Context, provider, status string, duration time.Duration) {
	if m.pipelineRunsTotal == nil || m.pipelineRunDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrProvider, provider),
		attribute.String(attrStatus, status),
	}

	m.pipelineRunsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.pipelineRunDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordMessagesFetched records messages fetched from a provider.
func (m *Metrics) RecordMessagesFetched(ctx context.Context, provider string, count int) {
	if m.messagesFetched == nil {
		return
	}

	m.messagesFetched.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String(attrProvider, provider),
	))
}

// RecordMessageSkipped records one message skipped before analysis.
// Reason should be one of SkipCached, SkipParseError.
func (m *Metrics) RecordMessageSkipped(ctx context.Context, reason string) {
	if m.messagesSkipped == nil {
		return
	}

	m.messagesSkipped.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrReason, reason),
	))
}

// RecordMessageTriaged records one triaged message.
// Mode should be ModeLLM or ModeHeuristic.
func (m *Metrics) RecordMessageTriaged(ctx context.Context, mode string) {
	if m.messagesTriaged == nil {
		return
	}

	m.messagesTriaged.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrMode, mode),
	))
}

// RecordLLMRequest records one model batch request with its outcome.
func (m *Metrics) RecordLLMRequest(ctx context.Context, model, status string, duration time.Duration) {
	if m.llmRequestsTotal == nil || m.llmRequestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrModel, model),
		attribute.String(attrStatus, status),
	}

	m.llmRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.llmRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordHTTPRequest records an HTTP request with method, path, status code,
// and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordToolInvocation records an MCP tool invocation with tool name,
// status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordToolInvocationWithAccount records an MCP tool invocation including
// the account label when detailed labels are enabled.
func (m *Metrics) RecordToolInvocationWithAccount(ctx context.Context, toolName, status, account string, duration time.Duration) {
	if m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	// Only add high-cardinality labels if explicitly enabled
	if m.detailedLabels && account != "" {
		attrs = append(attrs, attribute.String(attrAccount, account))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

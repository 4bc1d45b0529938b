// Package instrumentation provides OpenTelemetry instrumentation for the
// beacon triage service.
//
// # Metrics
//
// Pipeline metrics:
//   - pipeline_runs_total: Counter of triage pipeline runs by provider and status
//   - pipeline_run_duration_seconds: Histogram of full pipeline run durations
//   - messages_fetched_total: Counter of messages fetched by provider
//   - messages_skipped_total: Counter of skipped messages by reason (cached, parse_error)
//   - messages_triaged_total: Counter of triaged messages by analysis mode (llm, heuristic)
//
// Model metrics:
//   - llm_requests_total: Counter of model batch requests by status
//   - llm_request_duration_seconds: Histogram of model batch request durations
//
// Server/HTTP metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// MCP tool metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created for pipeline runs (pipeline.run), individual stages
// (stage.<name>), model batch calls (llm.analyze_batch), and MCP tool
// invocations (tool.<name>).
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: beacon)
package instrumentation

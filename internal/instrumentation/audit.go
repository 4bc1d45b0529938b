package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"beacon/internal/logging"
)

// Submission captures one batch of message content leaving the process for
// model analysis. It is the audit record answering "what was sent to the
// model, when, and on whose behalf".
//
// Sender addresses are PII. By default only hashed identifiers are logged;
// full addresses appear only when the audit logger is configured with
// IncludePII.
type Submission struct {
	// RunID is the pipeline run that produced this batch.
	RunID string

	// Model is the model name the batch was sent to.
	Model string

	// Batch is the batch index within the run.
	Batch int

	// Senders are the sender addresses of the submitted messages.
	Senders []string

	// Messages is the number of messages in the batch.
	Messages int

	// Execution details.
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context.
	TraceID string
	SpanID  string
}

// NewSubmission creates a Submission with timing started. Call Complete
// when the batch call finishes.
func NewSubmission(runID, model string, batch int) *Submission {
	return &Submission{
		RunID:     runID,
		Model:     model,
		Batch:     batch,
		StartTime: time.Now(),
	}
}

// WithSenders records the sender addresses of the submitted messages.
func (s *Submission) WithSenders(senders []string) *Submission {
	s.Senders = senders
	s.Messages = len(senders)
	return s
}

// WithSpanContext extracts trace context from the current span.
func (s *Submission) WithSpanContext(ctx context.Context) *Submission {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		s.TraceID = span.SpanContext().TraceID().String()
		s.SpanID = span.SpanContext().SpanID().String()
	}
	return s
}

// Complete marks the submission as finished and calculates its duration.
func (s *Submission) Complete(err error) *Submission {
	s.Duration = time.Since(s.StartTime)
	s.Success = err == nil
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

// Status returns "success" or "error" based on the Success field.
func (s *Submission) Status() string {
	if s.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes with hashed sender identifiers.
func (s *Submission) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("run_id", s.RunID),
		slog.String("model", s.Model),
		slog.Int("batch", s.Batch),
		slog.Int("messages", s.Messages),
		slog.Duration("duration", s.Duration),
		slog.Bool("success", s.Success),
	}

	if len(s.Senders) > 0 {
		hashed := make([]string, len(s.Senders))
		for i, sender := range s.Senders {
			hashed[i] = logging.AnonymizeEmail(sender)
		}
		attrs = append(attrs, slog.Any("senders", hashed))
	}
	if s.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", s.TraceID))
	}
	if s.Error != "" {
		attrs = append(attrs, slog.String("error", s.Error))
	}

	return attrs
}

// LogAuditAttrs returns slog attributes including full sender addresses.
// Route logs produced with these attributes to secured storage only.
func (s *Submission) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("run_id", s.RunID),
		slog.String("model", s.Model),
		slog.Int("batch", s.Batch),
		slog.Int("messages", s.Messages),
		slog.Duration("duration", s.Duration),
		slog.Bool("success", s.Success),
	}

	if len(s.Senders) > 0 {
		attrs = append(attrs, slog.Any("senders", s.Senders))
	}
	if s.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", s.TraceID))
	}
	if s.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", s.SpanID))
	}
	if s.Error != "" {
		attrs = append(attrs, slog.String("error", s.Error))
	}

	return attrs
}

// AuditLogger writes the model-submission audit trail.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an AuditLogger with PII excluded.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: false,
		enabled:    true,
	}
}

// NewAuditLoggerWithConfig creates an AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogSubmission logs one model submission. Whether full sender addresses or
// hashed identifiers appear depends on the IncludePII configuration.
func (al *AuditLogger) LogSubmission(s *Submission) {
	if !al.enabled {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = s.LogAuditAttrs()
	} else {
		attrs = s.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if s.Success {
		al.logger.Info("llm_submission", args...)
	} else {
		al.logger.Warn("llm_submission_failed", args...)
	}
}

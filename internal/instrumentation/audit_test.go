package instrumentation

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newCapturedLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), &buf
}

func TestSubmissionComplete(t *testing.T) {
	s := NewSubmission("run-1", "gemini-2.0-flash", 0).
		WithSenders([]string{"alice@example.com", "bob@example.com"})

	s.Complete(nil)

	if !s.Success {
		t.Error("expected submission to be successful")
	}
	if s.Status() != StatusSuccess {
		t.Errorf("expected status %q, got %q", StatusSuccess, s.Status())
	}
	if s.Messages != 2 {
		t.Errorf("expected 2 messages, got %d", s.Messages)
	}
	if s.Duration < 0 {
		t.Error("expected non-negative duration")
	}
}

func TestSubmissionCompleteWithError(t *testing.T) {
	s := NewSubmission("run-1", "gemini-2.0-flash", 1)
	s.Complete(errors.New("model unavailable"))

	if s.Success {
		t.Error("expected submission to be failed")
	}
	if s.Status() != StatusError {
		t.Errorf("expected status %q, got %q", StatusError, s.Status())
	}
	if s.Error != "model unavailable" {
		t.Errorf("unexpected error message: %q", s.Error)
	}
}

func TestAuditLoggerAnonymizesByDefault(t *testing.T) {
	logger, buf := newCapturedLogger()
	al := NewAuditLogger(logger)

	s := NewSubmission("run-1", "gemini-2.0-flash", 0).
		WithSenders([]string{"alice@example.com"})
	s.Complete(nil)

	al.LogSubmission(s)

	out := buf.String()
	if strings.Contains(out, "alice@example.com") {
		t.Error("expected sender address to be anonymized")
	}
	if !strings.Contains(out, "sender:") {
		t.Error("expected hashed sender identifier in output")
	}
	if !strings.Contains(out, "llm_submission") {
		t.Error("expected llm_submission event in output")
	}
}

func TestAuditLoggerIncludesPIIWhenConfigured(t *testing.T) {
	logger, buf := newCapturedLogger()
	al := NewAuditLoggerWithConfig(logger, AuditLoggingConfig{
		Enabled:    true,
		IncludePII: true,
	})

	s := NewSubmission("run-1", "gemini-2.0-flash", 0).
		WithSenders([]string{"alice@example.com"})
	s.Complete(nil)

	al.LogSubmission(s)

	if !strings.Contains(buf.String(), "alice@example.com") {
		t.Error("expected full sender address in audit output")
	}
}

func TestAuditLoggerDisabled(t *testing.T) {
	logger, buf := newCapturedLogger()
	al := NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: false})

	s := NewSubmission("run-1", "gemini-2.0-flash", 0)
	s.Complete(nil)

	al.LogSubmission(s)

	if buf.Len() != 0 {
		t.Errorf("expected no output when disabled, got %q", buf.String())
	}
}

func TestAuditLoggerLogsFailure(t *testing.T) {
	logger, buf := newCapturedLogger()
	al := NewAuditLogger(logger)

	s := NewSubmission("run-1", "gemini-2.0-flash", 2)
	s.Complete(errors.New("timeout"))

	al.LogSubmission(s)

	out := buf.String()
	if !strings.Contains(out, "llm_submission_failed") {
		t.Error("expected llm_submission_failed event in output")
	}
	if !strings.Contains(out, "timeout") {
		t.Error("expected error message in output")
	}
}

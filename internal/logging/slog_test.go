package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{"simple address", "alice@example.com"},
		{"display form normalized by caller", "bob@corp.example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnonymizeEmail(tt.email)
			assert.True(t, strings.HasPrefix(got, "sender:"))
			assert.NotContains(t, got, "@")
			// Deterministic
			assert.Equal(t, got, AnonymizeEmail(tt.email))
		})
	}

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", AnonymizeEmail(""))
	})

	t.Run("case insensitive", func(t *testing.T) {
		assert.Equal(t, AnonymizeEmail("Alice@Example.com"), AnonymizeEmail("alice@example.com"))
	})
}

func TestErr(t *testing.T) {
	t.Run("nil error omitted from output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		logger.Info("op done", Err(nil))
		assert.NotContains(t, buf.String(), "error")
	})

	t.Run("error included", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		logger.Info("op failed", Err(errors.New("boom")))
		assert.Contains(t, buf.String(), "boom")
	})
}

func TestSanitizeSecret(t *testing.T) {
	assert.Equal(t, "<empty>", SanitizeSecret(""))
	got := SanitizeSecret("sk-very-secret-key")
	assert.NotContains(t, got, "sk-very")
	assert.Contains(t, got, "18")
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"alice@example.com", "example.com"},
		{"invalid", ""},
		{"", ""},
		{"a@b@c", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ExtractDomain(tt.email))
	}
}

func TestWithHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	WithRunID(WithProvider(WithOperation(logger, "pipeline.run"), "gmail"), "run-1").
		Info("stage done", Stage("fetch"), Status(StatusSuccess))

	out := buf.String()
	assert.Contains(t, out, "operation=pipeline.run")
	assert.Contains(t, out, "provider=gmail")
	assert.Contains(t, out, "run_id=run-1")
	assert.Contains(t, out, "stage=fetch")
	assert.Contains(t, out, "status=success")
}

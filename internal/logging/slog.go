package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation  = "operation"
	KeyProvider   = "provider"
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyAccount    = "account"
	KeySenderHash = "sender_hash"
	KeyDuration   = "duration"
	KeyStatus     = "status"
	KeyError      = "error"
	KeyBatch      = "batch"
)

// Status values for consistent logging.
// Note: These are intentionally duplicated from instrumentation package
// to avoid circular dependencies (instrumentation imports logging).
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithProvider returns a logger with the mail provider attribute set.
func WithProvider(logger *slog.Logger, provider string) *slog.Logger {
	return logger.With(slog.String(KeyProvider, provider))
}

// WithRunID returns a logger with the pipeline run ID attribute set.
func WithRunID(logger *slog.Logger, runID string) *slog.Logger {
	return logger.With(slog.String(KeyRunID, runID))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Provider returns a slog attribute for the mail provider name.
func Provider(provider string) slog.Attr {
	return slog.String(KeyProvider, provider)
}

// RunID returns a slog attribute for the pipeline run ID.
func RunID(runID string) slog.Attr {
	return slog.String(KeyRunID, runID)
}

// Stage returns a slog attribute for the pipeline stage.
func Stage(stage string) slog.Attr {
	return slog.String(KeyStage, stage)
}

// Account returns a slog attribute for the account name.
func Account(account string) slog.Attr {
	return slog.String(KeyAccount, account)
}

// Batch returns a slog attribute for an LLM batch index.
func Batch(n int) slog.Attr {
	return slog.Int(KeyBatch, n)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from
// output, so Err(maybeNilErr) is always safe to pass.
func Err(err error) slog.Attr {
	if err == nil {
		// Return an empty Group that slog will omit from output
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail returns a hashed representation of an email address for
// logging purposes. This allows correlation of log entries without exposing
// PII.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "sender:" + hex.EncodeToString(hash[:8])
}

// SenderHash returns a slog attribute with the anonymized sender address.
func SenderHash(email string) slog.Attr {
	return slog.String(KeySenderHash, AnonymizeEmail(email))
}

// SanitizeSecret returns a masked version of a secret for logging.
// It returns a length indicator without exposing any content, as even
// partial prefixes of API keys can aid attacks.
func SanitizeSecret(secret string) string {
	if secret == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[secret:%d chars]", len(secret))
}

// ExtractDomain extracts the domain part from an email address. Useful for
// lower-cardinality logging where the full address would create too many
// unique values.
func ExtractDomain(email string) string {
	if email == "" {
		return ""
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// Domain returns a slog attribute for the sender domain (lower cardinality
// than the full address).
func Domain(email string) slog.Attr {
	return slog.String("sender_domain", ExtractDomain(email))
}

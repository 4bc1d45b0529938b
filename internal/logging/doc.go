// Package logging provides structured logging utilities for beacon.
//
// This package centralizes logging patterns to ensure consistent, structured
// logging throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - PII sanitization (email anonymization)
//   - Consistent attribute naming across the codebase
//   - Logger adapter interface for flexibility
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "pipeline.run")
//	logger.Info("run finished", logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("message analyzed", logging.SenderHash(msg.From))
//
// # Security Considerations
//
// Email senders are hashed before logging so entries can be correlated
// without exposing PII. API keys and passwords are never logged directly.
package logging

package instrumentation

import "strings"

// Cardinality management helpers for metrics. High cardinality inflates
// memory and storage in the metrics backend; always reduce user
// identifiers before recording them.

// ExtractSenderDomain extracts the domain part from an email address.
// This reduces cardinality by using the domain instead of the full address.
//
// Example:
//
//	ExtractSenderDomain("jane@example.com")  // "example.com"
//	ExtractSenderDomain("invalid")           // "unknown"
//	ExtractSenderDomain("")                  // "unknown"
func ExtractSenderDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}

	return "unknown"
}

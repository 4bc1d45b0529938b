// Package llm runs batched email analysis through the Gemini API.
//
// Messages are grouped into batches; each batch becomes one
// chat-completion style request whose reply is a JSON array with one
// verdict per message (summary, category, action items, priority). The
// client enforces a local rate limit between requests, retries transient
// failures with exponential backoff, and tolerates partial replies: a
// message missing from the model's answer simply gets no verdict, and the
// pipeline falls back to heuristics for it.
//
// Only message excerpts leave the machine. The excerpt length is bounded
// by configuration, and every submission is recorded through the
// instrumentation audit log.
package llm

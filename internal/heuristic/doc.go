// Package heuristic computes local, model-free signals for an email.
//
// The analyzer runs before any LLM call and its output serves two purposes:
// it feeds the final priority blend in the triage package, and it provides a
// complete fallback result when the LLM is unavailable or drops a message
// from a batch reply. Everything here is plain text inspection: urgency
// keywords, deadline mentions, question detection, and bulk-mail markers
// such as List-Unsubscribe or a no-reply sender.
package heuristic

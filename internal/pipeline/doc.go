// Package pipeline orchestrates one triage run: fetch messages from the
// configured provider, drop what the cache has already seen, compute
// heuristic signals, analyze fresh messages with the model in bounded
// concurrent batches, merge both views into triage records, and persist
// them.
//
// A failed model batch degrades that batch to heuristic-only records
// instead of failing the run. Context cancellation aborts the run between
// stages.
package pipeline

// Package store persists dedup state and triage results in SQLite.
//
// Two tables back the pipeline: messages records which fingerprints have
// been seen (and when), so a message analyzed once is never re-sent to the
// LLM within its TTL window; triage holds the merged analysis records that
// the digest surfaces read. The full record is stored as JSON alongside the
// columns used for sorting and filtering.
package store

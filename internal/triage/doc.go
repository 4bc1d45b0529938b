// Package triage defines the analysis result model and merges the local
// heuristic signals with the LLM verdict into a single prioritized record.
//
// The merge rules are deliberately conservative: the LLM priority dominates
// the final score, the heuristics adjust it at the margins, and bulk-mail
// markers (List-Unsubscribe, no-reply senders) can demote a category the
// model got wrong but never promote one.
package triage

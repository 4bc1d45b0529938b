package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"beacon/internal/triage"
)

// BatchItem is one message prepared for analysis. Key is the message
// fingerprint; the model echoes it back so replies can be matched to
// messages regardless of ordering.
type BatchItem struct {
	Key     string
	From    string
	Subject string
	Excerpt string
}

const promptHeader = `You are an email triage assistant. For each email below, return a JSON array with exactly one object per email, in any order, with these fields:
  "id": the email id, copied verbatim
  "summary": a summary in at most two sentences
  "category": one of %s
  "actionItems": concrete follow-up actions for the recipient, empty array if none
  "priority": integer 1-5, where 5 means needs attention today and 1 means ignorable

Respond with the JSON array only, no prose and no code fences.

Emails:
`

// buildPrompt renders the batch into a single analysis prompt.
func buildPrompt(items []BatchItem) string {
	var names []string
	for _, c := range triage.Categories {
		names = append(names, string(c))
	}

	var b strings.Builder
	fmt.Fprintf(&b, promptHeader, strings.Join(names, ", "))

	for i, item := range items {
		fmt.Fprintf(&b, "\n--- email %d ---\n", i+1)
		fmt.Fprintf(&b, "id: %s\n", item.Key)
		fmt.Fprintf(&b, "from: %s\n", item.From)
		fmt.Fprintf(&b, "subject: %s\n", item.Subject)
		fmt.Fprintf(&b, "body:\n%s\n", item.Excerpt)
	}

	return b.String()
}

// verdictEnvelope is the wire shape of one model reply entry.
type verdictEnvelope struct {
	ID          string   `json:"id"`
	Summary     string   `json:"summary"`
	Category    string   `json:"category"`
	ActionItems []string `json:"actionItems"`
	Priority    int      `json:"priority"`
}

// parseReply decodes the model reply into verdicts keyed by fingerprint.
// Entries with unknown or missing IDs are dropped; the caller treats
// missing keys as heuristic-only fallbacks.
func parseReply(reply string, items []BatchItem) (map[string]*triage.Verdict, error) {
	cleaned := stripFences(reply)

	var envelopes []verdictEnvelope
	if err := json.Unmarshal([]byte(cleaned), &envelopes); err != nil {
		return nil, fmt.Errorf("model reply is not a JSON array: %w", err)
	}

	known := make(map[string]bool, len(items))
	for _, item := range items {
		known[item.Key] = true
	}

	verdicts := make(map[string]*triage.Verdict)
	for _, env := range envelopes {
		if !known[env.ID] {
			continue
		}
		verdicts[env.ID] = &triage.Verdict{
			Summary:     strings.TrimSpace(env.Summary),
			Category:    strings.TrimSpace(env.Category),
			ActionItems: env.ActionItems,
			Priority:    env.Priority,
		}
	}

	return verdicts, nil
}

// stripFences removes a markdown code fence wrapper if the model added one
// despite instructions. Models do that.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

package triage

import (
	"sort"
	"strings"
	"time"

	"beacon/internal/heuristic"
	"beacon/internal/mail"
)

// Merge combines the heuristic signals and the LLM verdict for one message
// into the final Result. verdict may be nil, in which case the record is
// built from heuristics alone.
func Merge(msg *mail.Message, signals heuristic.Signals, verdict *Verdict, now time.Time) *Result {
	r := &Result{
		Fingerprint: msg.Fingerprint(),
		MessageID:   msg.ID,
		ThreadID:    msg.ThreadID,
		From:        msg.From,
		Subject:     msg.Subject,
		Date:        msg.Date,
		Snippet:     msg.Snippet,
		Signals:     signals,
		AnalyzedAt:  now,
	}

	if verdict == nil {
		r.Summary = heuristicSummary(msg)
		r.Category = heuristicCategory(signals)
		r.ActionItems = actionItemsFromSignals(signals)
		r.Score = signals.Score
		return r
	}

	r.LLMAnalyzed = true
	r.Summary = strings.TrimSpace(verdict.Summary)
	if r.Summary == "" {
		r.Summary = heuristicSummary(msg)
	}

	r.Category = reconcileCategory(ParseCategory(verdict.Category), signals)
	r.ActionItems = dedupeItems(verdict.ActionItems)
	r.Score = blendScore(verdict.Priority, signals)

	return r
}

// blendScore maps the LLM priority (1..5) onto the 0..100 scale and lets
// the heuristic score pull it up to 15 points in either direction.
func blendScore(priority int, signals heuristic.Signals) int {
	if priority < 1 {
		priority = 1
	}
	if priority > 5 {
		priority = 5
	}

	base := (priority - 1) * 25 // 0, 25, 50, 75, 100

	adjust := (signals.Score - base) / 4
	if adjust > 15 {
		adjust = 15
	}
	if adjust < -15 {
		adjust = -15
	}

	v := base + adjust
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return v
}

// reconcileCategory demotes the LLM category when header evidence says the
// mail is bulk. Headers don't lie; models sometimes do.
func reconcileCategory(c Category, signals heuristic.Signals) Category {
	switch signals.Sender {
	case heuristic.SenderNewsletter:
		if c != CategoryPromotion {
			return CategoryNewsletter
		}
	case heuristic.SenderNotification:
		if c == CategoryWork || c == CategoryPersonal {
			return CategoryNotification
		}
	}
	return c
}

func heuristicSummary(msg *mail.Message) string {
	if msg.Snippet != "" {
		return msg.Snippet
	}
	return mail.Snippet(msg.Body(), 160)
}

func heuristicCategory(signals heuristic.Signals) Category {
	switch signals.Sender {
	case heuristic.SenderNewsletter:
		return CategoryNewsletter
	case heuristic.SenderNotification:
		return CategoryNotification
	default:
		return CategoryOther
	}
}

func actionItemsFromSignals(signals heuristic.Signals) []string {
	if !signals.ReplyWanted {
		return nil
	}
	return []string{"Reply to this message"}
}

func dedupeItems(items []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

// SortByScore orders results by descending score, newest first on ties.
func SortByScore(results []*Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Date.After(results[j].Date)
	})
}

// Filter returns the results matching the given category (empty matches all)
// and minimum score.
func Filter(results []*Result, category Category, minScore int) []*Result {
	var out []*Result
	for _, r := range results {
		if category != "" && r.Category != category {
			continue
		}
		if r.Score < minScore {
			continue
		}
		out = append(out, r)
	}
	return out
}

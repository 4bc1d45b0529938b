package triage

import (
	"time"

	"beacon/internal/heuristic"
)

// Category is the triage category assigned to a message.
type Category string

const (
	CategoryWork         Category = "work"
	CategoryPersonal     Category = "personal"
	CategoryFinance      Category = "finance"
	CategoryTravel       Category = "travel"
	CategoryNewsletter   Category = "newsletter"
	CategoryNotification Category = "notification"
	CategoryPromotion    Category = "promotion"
	CategoryOther        Category = "other"
)

// Categories lists every valid category, in display order.
var Categories = []Category{
	CategoryWork,
	CategoryPersonal,
	CategoryFinance,
	CategoryTravel,
	CategoryNewsletter,
	CategoryNotification,
	CategoryPromotion,
	CategoryOther,
}

// ParseCategory normalizes a category string coming from the LLM.
// Unknown values map to CategoryOther.
func ParseCategory(s string) Category {
	c := Category(s)
	for _, known := range Categories {
		if c == known {
			return known
		}
	}
	return CategoryOther
}

// Verdict is the per-message output of the LLM analysis.
type Verdict struct {
	// Summary is at most a couple of sentences.
	Summary string `json:"summary"`

	// Category is the raw category string returned by the model.
	Category string `json:"category"`

	// ActionItems are concrete follow-ups extracted from the message.
	ActionItems []string `json:"actionItems,omitempty"`

	// Priority is the model's 1..5 rating, 5 being most urgent.
	Priority int `json:"priority"`
}

// Result is the final triage record for a single message.
type Result struct {
	Fingerprint string    `json:"fingerprint"`
	MessageID   string    `json:"messageId"`
	ThreadID    string    `json:"threadId,omitempty"`
	From        string    `json:"from"`
	Subject     string    `json:"subject"`
	Date        time.Time `json:"date"`
	Snippet     string    `json:"snippet,omitempty"`

	Summary     string   `json:"summary"`
	Category    Category `json:"category"`
	ActionItems []string `json:"actionItems,omitempty"`

	// Score is the merged priority on the 0..100 scale.
	Score int `json:"score"`

	// Signals preserves the heuristic analysis for transparency.
	Signals heuristic.Signals `json:"signals"`

	// LLMAnalyzed is false when the record was produced from heuristics
	// alone, either by configuration or after an LLM failure.
	LLMAnalyzed bool `json:"llmAnalyzed"`

	AnalyzedAt time.Time `json:"analyzedAt"`
}

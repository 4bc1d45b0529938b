package triage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/heuristic"
	"beacon/internal/mail"
)

var mergeNow = time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

func testMessage() *mail.Message {
	return &mail.Message{
		ID:        "msg-1",
		ThreadID:  "thread-1",
		MessageID: "<m1@example.com>",
		From:      "Alice <alice@example.com>",
		Subject:   "Contract review",
		Snippet:   "Please review the contract",
		TextBody:  "Please review the contract and sign by Friday.",
		Date:      mergeNow.Add(-3 * time.Hour),
	}
}

func TestMergeWithVerdict(t *testing.T) {
	msg := testMessage()
	signals := heuristic.Signals{Sender: heuristic.SenderHuman, ReplyWanted: true, Score: 75}
	verdict := &Verdict{
		Summary:     "Alice needs the contract reviewed and signed by Friday.",
		Category:    "work",
		ActionItems: []string{"Review contract", "review contract", "Sign by Friday", ""},
		Priority:    4,
	}

	r := Merge(msg, signals, verdict, mergeNow)

	assert.True(t, r.LLMAnalyzed)
	assert.Equal(t, msg.Fingerprint(), r.Fingerprint)
	assert.Equal(t, CategoryWork, r.Category)
	assert.Equal(t, verdict.Summary, r.Summary)
	// case-insensitive dedup, empties dropped
	assert.Equal(t, []string{"Review contract", "Sign by Friday"}, r.ActionItems)
	// priority 4 -> base 75, heuristic agrees, no adjustment
	assert.Equal(t, 75, r.Score)
	assert.Equal(t, mergeNow, r.AnalyzedAt)
}

func TestMergeWithoutVerdict(t *testing.T) {
	msg := testMessage()
	signals := heuristic.Signals{Sender: heuristic.SenderHuman, ReplyWanted: true, Score: 60}

	r := Merge(msg, signals, nil, mergeNow)

	assert.False(t, r.LLMAnalyzed)
	assert.Equal(t, 60, r.Score)
	assert.Equal(t, CategoryOther, r.Category)
	assert.Equal(t, msg.Snippet, r.Summary)
	require.Len(t, r.ActionItems, 1)
}

func TestBlendScore(t *testing.T) {
	tests := []struct {
		name     string
		priority int
		score    int
		expected int
	}{
		{"agreement leaves base", 4, 75, 75},
		{"heuristic pulls up", 1, 80, 15},     // base 0, adjust capped at +15
		{"heuristic pulls down", 5, 0, 85},    // base 100, adjust capped at -15
		{"priority clamped low", -3, 0, 0},    // treated as 1
		{"priority clamped high", 9, 100, 100}, // treated as 5
		{"mild adjustment", 3, 70, 55},        // base 50, (70-50)/4 = +5
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, blendScore(tt.priority, heuristic.Signals{Score: tt.score}))
		})
	}
}

func TestReconcileCategory(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		sender   heuristic.SenderClass
		expected Category
	}{
		{"newsletter override", CategoryWork, heuristic.SenderNewsletter, CategoryNewsletter},
		{"promotion survives newsletter sender", CategoryPromotion, heuristic.SenderNewsletter, CategoryPromotion},
		{"notification demotes work", CategoryWork, heuristic.SenderNotification, CategoryNotification},
		{"notification keeps finance", CategoryFinance, heuristic.SenderNotification, CategoryFinance},
		{"human sender untouched", CategoryPersonal, heuristic.SenderHuman, CategoryPersonal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reconcileCategory(tt.category, heuristic.Signals{Sender: tt.sender})
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseCategory(t *testing.T) {
	assert.Equal(t, CategoryWork, ParseCategory("work"))
	assert.Equal(t, CategoryOther, ParseCategory("spam-ish"))
	assert.Equal(t, CategoryOther, ParseCategory(""))
}

func TestSortByScore(t *testing.T) {
	older := &Result{Score: 50, Date: mergeNow.Add(-2 * time.Hour)}
	newer := &Result{Score: 50, Date: mergeNow.Add(-1 * time.Hour)}
	top := &Result{Score: 90, Date: mergeNow.Add(-5 * time.Hour)}

	results := []*Result{older, newer, top}
	SortByScore(results)

	assert.Equal(t, []*Result{top, newer, older}, results)
}

func TestFilter(t *testing.T) {
	results := []*Result{
		{Category: CategoryWork, Score: 80},
		{Category: CategoryNewsletter, Score: 10},
		{Category: CategoryWork, Score: 30},
	}

	assert.Len(t, Filter(results, CategoryWork, 0), 2)
	assert.Len(t, Filter(results, CategoryWork, 50), 1)
	assert.Len(t, Filter(results, "", 0), 3)
	assert.Empty(t, Filter(results, CategoryTravel, 0))
}

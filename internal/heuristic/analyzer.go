package heuristic

import (
	"regexp"
	"strings"
	"time"

	"beacon/internal/mail"
)

// SenderClass is a coarse classification of the sender derived from
// headers alone.
type SenderClass string

const (
	SenderHuman        SenderClass = "human"
	SenderNewsletter   SenderClass = "newsletter"
	SenderNotification SenderClass = "notification"
)

// Signals holds the model-free analysis of a single message.
type Signals struct {
	Sender       SenderClass `json:"sender"`
	UrgencyHits  []string    `json:"urgencyHits,omitempty"`
	HasQuestion  bool        `json:"hasQuestion"`
	HasDeadline  bool        `json:"hasDeadline"`
	ReplyWanted  bool        `json:"replyWanted"`
	Unsubscribe  bool        `json:"unsubscribe"`
	WordCount    int         `json:"wordCount"`
	AgeHours     float64     `json:"ageHours"`
	ActionPhrase []string    `json:"actionPhrases,omitempty"`

	// Score is the heuristic-only priority on the 0..100 scale.
	Score int `json:"score"`
}

var urgencyKeywords = []string{
	"urgent", "asap", "immediately", "action required", "important",
	"deadline", "overdue", "final notice", "reminder", "time sensitive",
	"expires", "last chance", "critical",
}

var actionPhrases = []string{
	"please review", "please confirm", "please sign", "please respond",
	"please reply", "can you", "could you", "let me know", "need you to",
	"waiting for your", "follow up", "get back to me", "sign off",
	"approve", "fill out", "complete the",
}

var (
	deadlineRe = regexp.MustCompile(`(?i)\b(by|before|due|no later than)\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday|today|tomorrow|eod|eow|end of (day|week|month)|\d{1,2}[/.-]\d{1,2}|\w+ \d{1,2}(st|nd|rd|th)?)\b`)
	noReplyRe  = regexp.MustCompile(`(?i)\b(no-?reply|do-?not-?reply|notifications?|alerts?|mailer-daemon)\b`)
	questionRe = regexp.MustCompile(`(?m)\?\s*$|\?\s`)
)

// Analyzer computes Signals for messages. now is injectable for tests.
type Analyzer struct {
	now func() time.Time
}

// New returns an Analyzer using wall-clock time.
func New() *Analyzer {
	return &Analyzer{now: time.Now}
}

// NewWithClock returns an Analyzer with a fixed clock, for tests.
func NewWithClock(now func() time.Time) *Analyzer {
	return &Analyzer{now: now}
}

// Analyze inspects a single message and returns its signals.
func (a *Analyzer) Analyze(msg *mail.Message) Signals {
	body := msg.Body()
	lowerBody := strings.ToLower(body)
	lowerSubject := strings.ToLower(msg.Subject)
	combined := lowerSubject + "\n" + lowerBody

	s := Signals{
		Sender:      classifySender(msg),
		Unsubscribe: msg.Header("List-Unsubscribe") != "",
		WordCount:   len(strings.Fields(body)),
	}

	for _, kw := range urgencyKeywords {
		if strings.Contains(combined, kw) {
			s.UrgencyHits = append(s.UrgencyHits, kw)
		}
	}
	for _, phrase := range actionPhrases {
		if strings.Contains(lowerBody, phrase) {
			s.ActionPhrase = append(s.ActionPhrase, phrase)
		}
	}

	s.HasQuestion = questionRe.MatchString(body) || strings.Contains(msg.Subject, "?")
	s.HasDeadline = deadlineRe.MatchString(combined)
	s.ReplyWanted = s.HasQuestion || len(s.ActionPhrase) > 0

	if !msg.Date.IsZero() {
		s.AgeHours = a.now().Sub(msg.Date).Hours()
	}

	s.Score = score(s)
	return s
}

// score maps signals to the 0..100 priority scale. The weights favor mail
// from humans that asks for something over bulk mail, with urgency and
// deadlines pushing the score up and age decaying it.
func score(s Signals) int {
	v := 0

	switch s.Sender {
	case SenderHuman:
		v += 40
	case SenderNotification:
		v += 15
	case SenderNewsletter:
		v += 5
	}

	if s.ReplyWanted {
		v += 20
	}
	if s.HasDeadline {
		v += 15
	}

	hits := len(s.UrgencyHits)
	if hits > 3 {
		hits = 3
	}
	v += hits * 5

	if s.Unsubscribe {
		v -= 20
	}

	// Older mail decays: -1 per 12h beyond the first day, capped at -15.
	if s.AgeHours > 24 {
		decay := int((s.AgeHours - 24) / 12)
		if decay > 15 {
			decay = 15
		}
		v -= decay
	}

	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return v
}

func classifySender(msg *mail.Message) SenderClass {
	if msg.Header("List-Unsubscribe") != "" || msg.Header("List-Id") != "" {
		return SenderNewsletter
	}
	if msg.Header("Auto-Submitted") != "" && msg.Header("Auto-Submitted") != "no" {
		return SenderNotification
	}
	if msg.Header("Precedence") == "bulk" || noReplyRe.MatchString(strings.ToLower(msg.From)) {
		return SenderNotification
	}
	return SenderHuman
}

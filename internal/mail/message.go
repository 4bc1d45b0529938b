package mail

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Message is the provider-neutral representation of a single email.
// Both the Gmail and IMAP fetchers produce values of this type.
type Message struct {
	// ID is the provider-side identifier (Gmail message ID or IMAP UID).
	ID string

	// ThreadID groups messages belonging to the same conversation.
	// Empty for providers that have no thread concept.
	ThreadID string

	// MessageID is the RFC 5322 Message-ID header, angle brackets included.
	MessageID string

	From    string
	To      []string
	Subject string
	Date    time.Time

	// Snippet is a short preview of the body, provider-supplied when
	// available and derived from the text body otherwise.
	Snippet string

	// TextBody is the decoded text/plain part. May be empty when the
	// message only carries HTML.
	TextBody string

	// HTMLBody is the decoded text/html part, if any.
	HTMLBody string

	// Headers holds selected raw headers (List-Unsubscribe, Reply-To, ...).
	Headers map[string]string

	// Labels are provider labels or IMAP flags.
	Labels []string

	// Size is the approximate raw message size in bytes.
	Size int64
}

// Body returns the best available text for analysis: the plain-text part
// when present, otherwise the HTML part stripped down to text.
func (m *Message) Body() string {
	if strings.TrimSpace(m.TextBody) != "" {
		return m.TextBody
	}
	return StripHTML(m.HTMLBody)
}

// Header returns the value of a selected header, or "" if it was not kept.
func (m *Message) Header(name string) string {
	if m.Headers == nil {
		return ""
	}
	return m.Headers[name]
}

// FromDomain returns the domain of the sender address, or "" when the From
// header cannot be parsed.
func (m *Message) FromDomain() string {
	addr := m.From
	if start := strings.LastIndex(addr, "<"); start != -1 {
		end := strings.LastIndex(addr, ">")
		if end > start {
			addr = addr[start+1 : end]
		}
	}
	parts := strings.Split(strings.TrimSpace(addr), "@")
	if len(parts) != 2 || parts[1] == "" {
		return ""
	}
	return strings.ToLower(parts[1])
}

// Fingerprint returns a stable content fingerprint for deduplication.
// It prefers the Message-ID header; messages without one fall back to a
// hash of sender, subject and date, which is stable across providers.
func (m *Message) Fingerprint() string {
	h := sha256.New()
	if mid := strings.TrimSpace(m.MessageID); mid != "" {
		h.Write([]byte(mid))
	} else {
		h.Write([]byte(m.From))
		h.Write([]byte{0})
		h.Write([]byte(m.Subject))
		h.Write([]byte{0})
		h.Write([]byte(m.Date.UTC().Format(time.RFC3339)))
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Excerpt returns at most limit runes of the analysis body, cutting at a
// word boundary where possible. LLM prompts use this to bound token usage.
func (m *Message) Excerpt(limit int) string {
	body := strings.TrimSpace(m.Body())
	runes := []rune(body)
	if len(runes) <= limit {
		return body
	}
	cut := string(runes[:limit])
	if idx := strings.LastIndexAny(cut, " \n\t"); idx > limit/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}

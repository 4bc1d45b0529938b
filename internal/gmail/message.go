package gmail

import (
	"encoding/base64"
	"strings"
	"time"

	gmail "google.golang.org/api/gmail/v1"

	"beacon/internal/mail"
)

// fromAPIMessage maps a full-format Gmail API message onto the neutral
// model. Bodies in the payload tree are base64url-encoded (RFC 4648).
func fromAPIMessage(m *gmail.Message) *mail.Message {
	msg := &mail.Message{
		ID:       m.Id,
		ThreadID: m.ThreadId,
		Snippet:  m.Snippet,
		Labels:   m.LabelIds,
		Size:     m.SizeEstimate,
		Headers:  make(map[string]string),
	}

	if m.InternalDate > 0 {
		msg.Date = time.UnixMilli(m.InternalDate).UTC()
	}

	if m.Payload == nil {
		return msg
	}

	msg.MessageID = headerValue(m.Payload, "Message-ID")
	if msg.MessageID == "" {
		msg.MessageID = headerValue(m.Payload, "Message-Id")
	}
	msg.From = headerValue(m.Payload, "From")
	msg.Subject = headerValue(m.Payload, "Subject")
	if to := headerValue(m.Payload, "To"); to != "" {
		for _, addr := range strings.Split(to, ",") {
			msg.To = append(msg.To, strings.TrimSpace(addr))
		}
	}
	for _, name := range []string{"List-Unsubscribe", "List-Id", "Reply-To", "Precedence", "Auto-Submitted"} {
		if v := headerValue(m.Payload, name); v != "" {
			msg.Headers[name] = v
		}
	}

	// The payload itself may be a leaf part for single-part messages.
	extractBody(m.Payload, msg)
	walkParts(m.Payload, func(part *gmail.MessagePart) {
		extractBody(part, msg)
	})

	return msg
}

func extractBody(part *gmail.MessagePart, msg *mail.Message) {
	if part.Body == nil || part.Body.Data == "" {
		return
	}
	switch part.MimeType {
	case "text/plain":
		if msg.TextBody == "" {
			msg.TextBody = decodeBody(part.Body.Data)
		}
	case "text/html":
		if msg.HTMLBody == "" {
			msg.HTMLBody = decodeBody(part.Body.Data)
		}
	}
}

// walkParts visits every part in the payload tree, depth first.
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	for _, p := range part.Parts {
		fn(p)
		walkParts(p, fn)
	}
}

// decodeBody decodes base64url body data, falling back to standard base64
// for the odd message that uses it.
func decodeBody(data string) string {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(decoded)
}

func headerValue(part *gmail.MessagePart, name string) string {
	for _, h := range part.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

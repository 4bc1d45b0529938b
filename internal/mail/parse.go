package mail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	gomail "github.com/emersion/go-message/mail"
)

// keptHeaders are the raw headers preserved on the parsed Message.
// Everything else is dropped to keep the model small.
var keptHeaders = []string{
	"List-Unsubscribe",
	"List-Id",
	"Reply-To",
	"In-Reply-To",
	"References",
	"Precedence",
	"Auto-Submitted",
}

// ParseRaw parses a raw RFC 822 message into the provider-neutral model.
// Multipart bodies are walked for the first text/plain and text/html parts;
// attachments are skipped. Encoded-word headers are decoded.
func ParseRaw(id string, raw []byte) (*Message, error) {
	mr, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse message %s: %w", id, err)
	}

	msg := &Message{
		ID:      id,
		Headers: make(map[string]string),
		Size:    int64(len(raw)),
	}

	h := mr.Header
	msg.Subject, _ = h.Subject()
	msg.MessageID = h.Get("Message-Id")
	if msg.MessageID == "" {
		msg.MessageID = h.Get("Message-ID")
	}

	if date, err := h.Date(); err == nil {
		msg.Date = date
	} else {
		msg.Date = time.Now().UTC()
	}

	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = formatAddress(from[0].Name, from[0].Address)
	} else {
		msg.From = decodeHeader(h.Get("From"))
	}
	if to, err := h.AddressList("To"); err == nil {
		for _, a := range to {
			msg.To = append(msg.To, formatAddress(a.Name, a.Address))
		}
	}

	for _, name := range keptHeaders {
		if v := h.Get(name); v != "" {
			msg.Headers[name] = v
		}
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A malformed part should not discard what was already
			// parsed; the headers alone are still useful.
			break
		}

		inline, ok := part.Header.(*gomail.InlineHeader)
		if !ok {
			continue
		}
		ctype, _, err := inline.ContentType()
		if err != nil {
			continue
		}

		switch ctype {
		case "text/plain":
			if msg.TextBody == "" {
				body, _ := io.ReadAll(part.Body)
				msg.TextBody = string(body)
			}
		case "text/html":
			if msg.HTMLBody == "" {
				body, _ := io.ReadAll(part.Body)
				msg.HTMLBody = string(body)
			}
		}
	}

	if msg.Snippet == "" {
		msg.Snippet = Snippet(msg.Body(), 160)
	}

	return msg, nil
}

// Snippet collapses whitespace in body and truncates to limit runes.
func Snippet(body string, limit int) string {
	collapsed := strings.Join(strings.Fields(body), " ")
	runes := []rune(collapsed)
	if len(runes) <= limit {
		return collapsed
	}
	return string(runes[:limit])
}

// decodeHeader decodes RFC 2047 encoded-words, returning the input
// unchanged when decoding fails.
func decodeHeader(s string) string {
	dec := mime.WordDecoder{}
	decoded, err := dec.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}

func formatAddress(name, address string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}

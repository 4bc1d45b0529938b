package mail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plainMessage = "From: Alice <alice@example.com>\r\n" +
	"To: Bob <bob@example.com>\r\n" +
	"Subject: Lunch tomorrow?\r\n" +
	"Message-ID: <lunch-1@example.com>\r\n" +
	"Date: Mon, 02 Mar 2026 09:30:00 +0000\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Are you free for lunch tomorrow at noon?\r\n"

const multipartMessage = "From: newsletter@shop.example\r\n" +
	"To: bob@example.com\r\n" +
	"Subject: =?utf-8?q?March_S=C3=A4le?=\r\n" +
	"Message-ID: <promo-99@shop.example>\r\n" +
	"List-Unsubscribe: <https://shop.example/unsub>\r\n" +
	"Date: Tue, 03 Mar 2026 08:00:00 +0000\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=BOUND\r\n" +
	"\r\n" +
	"--BOUND\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Big sale this week.\r\n" +
	"--BOUND\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><body><p>Big <b>sale</b> this week.</p></body></html>\r\n" +
	"--BOUND--\r\n"

const htmlOnlyMessage = "From: noreply@service.example\r\n" +
	"To: bob@example.com\r\n" +
	"Subject: Your invoice\r\n" +
	"Date: Wed, 04 Mar 2026 12:00:00 +0000\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><body><h1>Invoice</h1><p>Amount due: $42</p></body></html>\r\n"

func TestParseRawPlain(t *testing.T) {
	msg, err := ParseRaw("1", []byte(plainMessage))
	require.NoError(t, err)

	assert.Equal(t, "1", msg.ID)
	assert.Equal(t, "Alice <alice@example.com>", msg.From)
	assert.Equal(t, []string{"Bob <bob@example.com>"}, msg.To)
	assert.Equal(t, "Lunch tomorrow?", msg.Subject)
	assert.Equal(t, "<lunch-1@example.com>", msg.MessageID)
	assert.Contains(t, msg.TextBody, "free for lunch")
	assert.Empty(t, msg.HTMLBody)
	assert.Equal(t, 2026, msg.Date.Year())
	assert.NotEmpty(t, msg.Snippet)
}

func TestParseRawMultipart(t *testing.T) {
	msg, err := ParseRaw("2", []byte(multipartMessage))
	require.NoError(t, err)

	// Encoded-word subject is decoded
	assert.Equal(t, "March Säle", msg.Subject)
	assert.Contains(t, msg.TextBody, "Big sale this week.")
	assert.Contains(t, msg.HTMLBody, "<b>sale</b>")
	assert.Equal(t, "<https://shop.example/unsub>", msg.Header("List-Unsubscribe"))
}

func TestParseRawHTMLOnly(t *testing.T) {
	msg, err := ParseRaw("3", []byte(htmlOnlyMessage))
	require.NoError(t, err)

	assert.Empty(t, msg.TextBody)
	body := msg.Body()
	assert.Contains(t, body, "Invoice")
	assert.Contains(t, body, "Amount due: $42")
	assert.NotContains(t, body, "<")
}

func TestParseRawInvalid(t *testing.T) {
	_, err := ParseRaw("4", []byte("not an email at all\x00"))
	// go-message is lenient with odd input; either outcome is acceptable as
	// long as a hard failure carries the message ID.
	if err != nil {
		assert.Contains(t, err.Error(), "4")
	}
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		limit    int
		expected string
	}{
		{"collapses whitespace", "hello\n\n  world", 50, "hello world"},
		{"truncates", strings.Repeat("word ", 50), 9, "word word"},
		{"empty", "", 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Snippet(tt.body, tt.limit))
		})
	}
}

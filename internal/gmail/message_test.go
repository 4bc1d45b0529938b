package gmail

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gmail "google.golang.org/api/gmail/v1"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestFromAPIMessageSinglePart(t *testing.T) {
	m := &gmail.Message{
		Id:           "msg-1",
		ThreadId:     "thread-1",
		Snippet:      "Hello there",
		LabelIds:     []string{"INBOX", "UNREAD"},
		SizeEstimate: 1234,
		InternalDate: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC).UnixMilli(),
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "Alice <alice@example.com>"},
				{Name: "To", Value: "bob@example.com, carol@example.com"},
				{Name: "Subject", Value: "Hello"},
				{Name: "Message-ID", Value: "<m1@example.com>"},
			},
			Body: &gmail.MessagePartBody{Data: b64("Hello there, Bob.")},
		},
	}

	msg := fromAPIMessage(m)

	assert.Equal(t, "msg-1", msg.ID)
	assert.Equal(t, "thread-1", msg.ThreadID)
	assert.Equal(t, "<m1@example.com>", msg.MessageID)
	assert.Equal(t, "Alice <alice@example.com>", msg.From)
	assert.Equal(t, []string{"bob@example.com", "carol@example.com"}, msg.To)
	assert.Equal(t, "Hello", msg.Subject)
	assert.Equal(t, "Hello there, Bob.", msg.TextBody)
	assert.Equal(t, []string{"INBOX", "UNREAD"}, msg.Labels)
	assert.Equal(t, int64(1234), msg.Size)
	assert.Equal(t, 2026, msg.Date.Year())
}

func TestFromAPIMessageMultipart(t *testing.T) {
	m := &gmail.Message{
		Id: "msg-2",
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "deals@shop.example"},
				{Name: "Subject", Value: "Sale"},
				{Name: "List-Unsubscribe", Value: "<https://shop.example/u>"},
			},
			Parts: []*gmail.MessagePart{
				{
					MimeType: "text/plain",
					Body:     &gmail.MessagePartBody{Data: b64("Plain sale text")},
				},
				{
					MimeType: "multipart/related",
					Parts: []*gmail.MessagePart{
						{
							MimeType: "text/html",
							Body:     &gmail.MessagePartBody{Data: b64("<p>HTML sale</p>")},
						},
					},
				},
			},
		},
	}

	msg := fromAPIMessage(m)

	assert.Equal(t, "Plain sale text", msg.TextBody)
	assert.Equal(t, "<p>HTML sale</p>", msg.HTMLBody)
	assert.Equal(t, "<https://shop.example/u>", msg.Header("List-Unsubscribe"))
}

func TestFromAPIMessageNilPayload(t *testing.T) {
	msg := fromAPIMessage(&gmail.Message{Id: "msg-3", Snippet: "snippet only"})

	assert.Equal(t, "msg-3", msg.ID)
	assert.Equal(t, "snippet only", msg.Snippet)
	assert.Empty(t, msg.TextBody)
}

func TestDecodeBody(t *testing.T) {
	t.Run("urlsafe base64", func(t *testing.T) {
		assert.Equal(t, "hello", decodeBody(base64.URLEncoding.EncodeToString([]byte("hello"))))
	})

	t.Run("standard base64 fallback", func(t *testing.T) {
		// Pick data whose standard encoding differs from urlsafe
		raw := []byte{0xfb, 0xff, 0xfe, 0x01, 0x02}
		assert.Equal(t, string(raw), decodeBody(base64.StdEncoding.EncodeToString(raw)))
	})

	t.Run("garbage yields empty", func(t *testing.T) {
		assert.Equal(t, "", decodeBody("!!not base64!!"))
	})
}

func TestHeaderValueCaseInsensitive(t *testing.T) {
	part := &gmail.MessagePart{
		Headers: []*gmail.MessagePartHeader{
			{Name: "message-id", Value: "<x@y>"},
		},
	}
	assert.Equal(t, "<x@y>", headerValue(part, "Message-ID"))
	assert.Equal(t, "", headerValue(part, "Subject"))
}

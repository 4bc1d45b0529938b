// Package mail defines the provider-neutral message model used by the
// ingestion pipeline.
//
// Messages arrive from two sources: the Gmail API (already decoded into a
// payload tree) and raw RFC 822 bytes fetched over IMAP. Both paths converge
// on the Message type defined here. The package also provides:
//   - Parsing of raw RFC 822 messages, including multipart MIME bodies
//   - HTML-to-text stripping for messages that carry no plain-text part
//   - A stable content fingerprint used for deduplication
//
// The fingerprint is derived from the Message-ID header when present, and
// from the sender/subject/date triple otherwise, so the same message fetched
// through different providers deduplicates to the same key.
package mail

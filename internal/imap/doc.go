// Package imap fetches mail over IMAP for accounts without Gmail API
// access.
//
// The fetcher connects over implicit TLS, selects the configured mailbox
// and retrieves the most recent N messages as raw RFC 822 bytes, which the
// mail package then parses into the provider-neutral model. Only fetching
// is implemented: beacon never writes to the mailbox, so flags are read
// but not modified.
package imap

package imap

import (
	"context"
	"fmt"
	"strconv"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"beacon/internal/config"
	"beacon/internal/mail"
)

// Client fetches recent messages from a single IMAP mailbox.
type Client struct {
	cfg      config.IMAP
	password string
}

// NewClient creates an IMAP fetcher from the config section. The password
// comes from the environment, never from the config file.
func NewClient(cfg config.IMAP, password string) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("imap host is required")
	}
	if password == "" {
		return nil, fmt.Errorf("imap password is required (set %s)", config.EnvIMAPPassword)
	}
	return &Client{cfg: cfg, password: password}, nil
}

// Name identifies the provider in logs and metrics.
func (c *Client) Name() string {
	return "imap"
}

// Fetch connects, logs in, and retrieves the most recent limit messages
// from the configured mailbox. Each connection is short-lived; triage runs
// are minutes apart, so holding a session open buys nothing.
func (c *Client) Fetch(ctx context.Context, limit int) ([]*mail.Message, error) {
	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)
	cli, err := imapclient.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer cli.Close()

	if err := cli.Login(c.cfg.Username, c.password).Wait(); err != nil {
		return nil, fmt.Errorf("imap login for %s: %w", c.cfg.Username, err)
	}
	defer func() {
		_ = cli.Logout().Wait()
	}()

	mbox := c.cfg.Mailbox
	if mbox == "" {
		mbox = "INBOX"
	}
	selected, err := cli.Select(mbox, &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", mbox, err)
	}

	total := selected.NumMessages
	if total == 0 {
		return nil, nil
	}

	// Sequence numbers are 1-based and ascending by arrival; take the tail.
	lo := uint32(1)
	if total > uint32(limit) {
		lo = total - uint32(limit) + 1
	}
	var seqSet imap.SeqSet
	seqSet.AddRange(lo, total)

	bodySection := &imap.FetchItemBodySection{}
	fetchOptions := &imap.FetchOptions{
		UID:         true,
		Flags:       true,
		RFC822Size:  true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	buffered, err := cli.Fetch(seqSet, fetchOptions).Collect()
	if err != nil {
		return nil, fmt.Errorf("fetch %s messages %d:%d: %w", mbox, lo, total, err)
	}

	messages := make([]*mail.Message, 0, len(buffered))
	for _, buf := range buffered {
		raw := buf.FindBodySection(bodySection)
		if raw == nil {
			continue
		}

		id := strconv.FormatUint(uint64(buf.UID), 10)
		msg, err := mail.ParseRaw(id, raw)
		if err != nil {
			// One unparseable message should not sink the whole fetch.
			continue
		}

		for _, flag := range buf.Flags {
			msg.Labels = append(msg.Labels, string(flag))
		}
		if buf.RFC822Size > 0 {
			msg.Size = buf.RFC822Size
		}

		messages = append(messages, msg)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return messages, nil
}

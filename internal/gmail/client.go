package gmail

import (
	"context"
	"fmt"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"beacon/internal/google"
	"beacon/internal/mail"
)

// Client wraps the Gmail Users service for a single account.
type Client struct {
	svc     *gmail.UsersService
	account string
	query   string
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// HasTokenForAccount checks if a cached OAuth token exists for the account.
func HasTokenForAccount(account string) bool {
	return google.HasTokenForAccount(account)
}

// NewClientForAccount creates a Gmail client authenticated for the given
// account. query is the Gmail search expression used by Fetch.
func NewClientForAccount(ctx context.Context, account, query string) (*Client, error) {
	httpClient, err := google.GetHTTPClient(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("no valid Google OAuth token for account %s: %w", account, err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{
		svc:     svc.Users,
		account: account,
		query:   query,
	}, nil
}

// ListMessageIDs lists message IDs matching the client query, paginating
// until limit IDs are collected or the result set is exhausted.
func (c *Client) ListMessageIDs(ctx context.Context, limit int) ([]string, error) {
	var ids []string
	pageToken := ""

	for {
		remaining := limit - len(ids)
		if remaining <= 0 {
			break
		}

		// Gmail caps page size at 100
		pageSize := int64(remaining)
		if pageSize > 100 {
			pageSize = 100
		}

		req := c.svc.Messages.List("me").Q(c.query).MaxResults(pageSize).Context(ctx)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		res, err := req.Do()
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}

		for _, m := range res.Messages {
			ids = append(ids, m.Id)
		}

		if res.NextPageToken == "" || len(ids) >= limit {
			break
		}
		pageToken = res.NextPageToken
	}

	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// GetMessage retrieves one message in full format and maps it onto the
// neutral model.
func (c *Client) GetMessage(ctx context.Context, id string) (*mail.Message, error) {
	msg, err := c.svc.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	return fromAPIMessage(msg), nil
}

// Fetch lists and retrieves up to limit messages matching the query.
// This is the pipeline's Fetcher entry point.
func (c *Client) Fetch(ctx context.Context, limit int) ([]*mail.Message, error) {
	ids, err := c.ListMessageIDs(ctx, limit)
	if err != nil {
		return nil, err
	}

	messages := make([]*mail.Message, 0, len(ids))
	for _, id := range ids {
		msg, err := c.GetMessage(ctx, id)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Name identifies the provider in logs and metrics.
func (c *Client) Name() string {
	return "gmail"
}

package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"beacon/internal/logging"
	"beacon/internal/triage"
)

// Options configure the analysis client.
type Options struct {
	APIKey            string
	Model             string
	MaxRetries        int
	RequestsPerMinute int
}

// Client analyzes email batches through the Gemini API.
type Client struct {
	model      string
	maxRetries int
	limiter    *Limiter
	logger     logging.Logger

	// generate issues one model request. Swappable in tests.
	generate func(ctx context.Context, prompt string) (string, error)

	// sleep implements retry backoff. Swappable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates an analysis client. The API key is required; the model
// defaults to gemini-2.0-flash.
func NewClient(ctx context.Context, opts Options, logger logging.Logger) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if opts.Model == "" {
		opts.Model = "gemini-2.0-flash"
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 10
	}
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: opts.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	c := &Client{
		model:      opts.Model,
		maxRetries: opts.MaxRetries,
		limiter:    NewLimiter(opts.RequestsPerMinute, time.Minute),
		logger:     logger,
		sleep:      sleepCtx,
	}
	c.generate = func(ctx context.Context, prompt string) (string, error) {
		contents := []*genai.Content{
			genai.NewContentFromText(prompt, genai.RoleUser),
		}
		result, err := genaiClient.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr[float32](0.2),
		})
		if err != nil {
			return "", err
		}
		text := result.Text()
		if text == "" {
			return "", fmt.Errorf("model returned an empty reply")
		}
		return text, nil
	}

	return c, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// AnalyzeBatch sends one batch through the model and returns verdicts
// keyed by item key. Messages absent from the reply have no map entry.
// The whole batch fails only when every attempt fails.
func (c *Client) AnalyzeBatch(ctx context.Context, items []BatchItem) (map[string]*triage.Verdict, error) {
	if len(items) == 0 {
		return map[string]*triage.Verdict{}, nil
	}

	prompt := buildPrompt(items)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			c.logger.Warn("retrying batch analysis",
				"attempt", attempt,
				"backoff", backoff.String(),
				logging.KeyError, lastErr.Error())
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		reply, err := c.generate(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		verdicts, err := parseReply(reply, items)
		if err != nil {
			// Malformed JSON is as transient as a 5xx: re-ask.
			lastErr = err
			continue
		}

		return verdicts, nil
	}

	return nil, fmt.Errorf("batch analysis failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"beacon/internal/config"
	"beacon/internal/gmail"
	"beacon/internal/imap"
	"beacon/internal/instrumentation"
	"beacon/internal/llm"
	"beacon/internal/logging"
	"beacon/internal/pipeline"
	"beacon/internal/store"
)

// setupLogger configures slog on stderr. Stdout stays clean for command
// output and for the MCP stdio transport.
func setupLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// loadConfig reads the config file, defaulting to the standard location.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

// newFetcher builds the mail fetcher the config asks for.
func newFetcher(ctx context.Context, cfg *config.Config) (pipeline.Fetcher, error) {
	switch cfg.Fetch.Provider {
	case config.ProviderGmail:
		client, err := gmail.NewClientForAccount(ctx, cfg.Fetch.Account, cfg.Fetch.Query)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gmail client for account %s: %w", cfg.Fetch.Account, err)
		}
		return client, nil

	case config.ProviderIMAP:
		client, err := imap.NewClient(cfg.IMAP, cfg.IMAPPassword())
		if err != nil {
			return nil, fmt.Errorf("failed to create IMAP client: %w", err)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Fetch.Provider)
	}
}

// newAnalyzer builds the model client, or returns nil when analysis is
// disabled or no API key is present. Missing keys degrade to
// heuristic-only triage instead of failing the command.
func newAnalyzer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (pipeline.Analyzer, error) {
	if !cfg.LLM.Enabled {
		return nil, nil
	}

	apiKey := cfg.GeminiAPIKey()
	if apiKey == "" {
		logger.Warn("model analysis disabled: no API key",
			"env", config.EnvGeminiAPIKey,
		)
		return nil, nil
	}

	client, err := llm.NewClient(ctx, llm.Options{
		APIKey:            apiKey,
		Model:             cfg.LLM.Model,
		MaxRetries:        cfg.LLM.MaxRetries,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
	}, logging.NewSlogAdapter(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	return client, nil
}

// buildPipeline assembles the full triage pipeline from config. The caller
// owns closing the returned store.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics, audit *instrumentation.AuditLogger) (*pipeline.Pipeline, *store.Store, error) {
	if err := cfg.EnsureStoreDir(); err != nil {
		return nil, nil, err
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store at %s: %w", cfg.Store.Path, err)
	}

	fetcher, err := newFetcher(ctx, cfg)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}

	analyzer, err := newAnalyzer(ctx, cfg, logger)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}

	p := pipeline.New(fetcher, analyzer, st, pipeline.Options{
		MaxMessages:  cfg.Fetch.MaxMessages,
		BatchSize:    cfg.LLM.BatchSize,
		ExcerptChars: cfg.LLM.ExcerptChars,
		TTL:          cfg.TTL(),
	}, logger, metrics, audit)

	return p, st, nil
}

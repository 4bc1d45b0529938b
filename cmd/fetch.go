package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"beacon/internal/instrumentation"
)

func newFetchCmd() *cobra.Command {
	var (
		configPath  string
		debugMode   bool
		maxMessages int
		noLLM       bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch and triage new mail once",
		Long: `Fetch messages from the configured provider, skip what was already
triaged, analyze the rest, and store the results. Prints a run summary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(debugMode)

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if maxMessages > 0 {
				cfg.Fetch.MaxMessages = maxMessages
			}
			if noLLM {
				cfg.LLM.Enabled = false
			}

			ctx, cancel := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer cancel()

			// One-shot runs skip the exporters; the run summary is the output.
			audit := instrumentation.NewAuditLoggerWithConfig(logger,
				instrumentation.DefaultConfig().AuditLogging)

			p, st, err := buildPipeline(ctx, cfg, logger, nil, audit)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			summary, err := p.Run(ctx)
			if err != nil {
				return fmt.Errorf("pipeline run failed: %w", err)
			}

			fmt.Printf("Run %s (%s): fetched %d, skipped %d, triaged %d (%d via model, %d heuristic-only)\n",
				summary.RunID, summary.Provider,
				summary.Fetched, summary.Skipped, summary.Triaged,
				summary.LLMAnalyzed, summary.HeuristicOnly)
			if summary.FailedBatches > 0 {
				fmt.Printf("Warning: %d model batches failed and fell back to heuristics\n", summary.FailedBatches)
			}
			if summary.Pruned > 0 {
				fmt.Printf("Pruned %d expired cache entries\n", summary.Pruned)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file path (default: ~/.config/beacon/config.toml)")
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().IntVar(&maxMessages, "max", 0, "Override the maximum number of messages to fetch")
	cmd.Flags().BoolVar(&noLLM, "no-llm", false, "Skip model analysis, use heuristics only")

	return cmd
}

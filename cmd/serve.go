package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"beacon/internal/config"
	"beacon/internal/instrumentation"
	"beacon/internal/server"
	"beacon/internal/tools/triage_tools"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	var (
		configPath      string
		debugMode       bool
		transport       string
		httpAddr        string
		metricsAddr     string
		metricsEnabled  bool
		refreshInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the triage server",
		Long: `Start the triage server.

Transports:
  - http:  JSON API and digest page, plus a Prometheus metrics server on a
           dedicated port (default)
  - stdio: MCP server over standard input/output, for AI assistants

With --refresh-interval the server runs the pipeline periodically on its
own; otherwise runs are triggered via POST /api/v1/refresh or the
beacon_refresh MCP tool.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if transport != "http" && transport != "stdio" {
				return fmt.Errorf("unknown transport %q, must be http or stdio", transport)
			}

			logger := setupLogger(debugMode)

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if httpAddr != "" {
				cfg.Server.Bind = httpAddr
			}
			if metricsAddr != "" {
				cfg.Server.MetricsBind = metricsAddr
			}

			return runServe(cfg, logger, transport, metricsEnabled, refreshInterval)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file path (default: ~/.config/beacon/config.toml)")
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&transport, "transport", "http", "Transport type: http or stdio")
	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "HTTP server address (overrides config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Metrics server address (overrides config)")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port")
	cmd.Flags().DurationVar(&refreshInterval, "refresh-interval", 0, "Run the pipeline periodically (e.g. 15m). 0 disables")

	return cmd
}

func runServe(cfg *config.Config, logger *slog.Logger, transport string, metricsEnabled bool, refreshInterval time.Duration) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("instrumentation shutdown failed", "error", err)
		}
	}()

	audit := instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)

	p, st, err := buildPipeline(shutdownCtx, cfg, logger, provider.Metrics(), audit)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	sc := server.NewServerContext(shutdownCtx, st, p)
	defer func() { _ = sc.Shutdown() }()

	if refreshInterval > 0 {
		go periodicRefresh(shutdownCtx, sc, logger, refreshInterval)
	}

	switch transport {
	case "stdio":
		return serveStdio(sc, provider)
	default:
		return serveHTTP(shutdownCtx, cfg, logger, sc, provider, metricsEnabled)
	}
}

// periodicRefresh runs the pipeline on a fixed interval until the context
// is cancelled.
func periodicRefresh(ctx context.Context, sc *server.ServerContext, logger *slog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sc.Refresh(ctx); err != nil && ctx.Err() == nil {
				logger.Error("scheduled refresh failed", "error", err)
			}
		}
	}
}

func serveStdio(sc *server.ServerContext, provider *instrumentation.Provider) error {
	s := mcpserver.NewMCPServer("beacon", version)

	if err := triage_tools.RegisterTriageTools(s, sc, provider.Metrics()); err != nil {
		return fmt.Errorf("failed to register triage tools: %w", err)
	}

	return mcpserver.ServeStdio(s)
}

func serveHTTP(ctx context.Context, cfg *config.Config, logger *slog.Logger, sc *server.ServerContext, provider *instrumentation.Provider, metricsEnabled bool) error {
	var metricsServer *server.MetricsServer
	if metricsEnabled && provider.Enabled() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.Server.MetricsBind,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	apiServer := server.New(sc, cfg.Server.Bind, logger, provider.Metrics())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- apiServer.Start()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown on signal
	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()

	var errs []error
	if err := apiServer.Shutdown(stopCtx); err != nil {
		errs = append(errs, err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(stopCtx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

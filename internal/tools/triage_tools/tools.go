package triage_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"beacon/internal/instrumentation"
	"beacon/internal/server"
	"beacon/internal/store"
	"beacon/internal/triage"
)

// listOptionsFromArgs parses digest filters from tool arguments. Numeric
// arguments arrive as float64 through the JSON-RPC layer.
func listOptionsFromArgs(args map[string]interface{}) (store.ListOptions, error) {
	opts := store.ListOptions{Limit: 50}

	if raw, ok := args["category"].(string); ok && raw != "" {
		c := triage.Category(raw)
		if triage.ParseCategory(raw) != c {
			return opts, fmt.Errorf("unknown category %q", raw)
		}
		opts.Category = c
	}

	if raw, ok := args["minScore"].(float64); ok {
		n := int(raw)
		if n < 0 || n > 100 {
			return opts, fmt.Errorf("minScore must be in 0..100, got %d", n)
		}
		opts.MinScore = n
	}

	if raw, ok := args["limit"].(float64); ok {
		n := int(raw)
		if n <= 0 {
			return opts, fmt.Errorf("limit must be positive, got %d", n)
		}
		opts.Limit = n
	}

	return opts, nil
}

// RegisterTriageTools registers all triage tools with the MCP server.
func RegisterTriageTools(s *mcpserver.MCPServer, sc *server.ServerContext, metrics *instrumentation.Metrics) error {
	if metrics == nil {
		metrics = &instrumentation.Metrics{}
	}

	registerDigestTool(s, sc, metrics)
	registerMessageDetailTool(s, sc, metrics)
	registerRefreshTool(s, sc, metrics)

	return nil
}

func registerDigestTool(s *mcpserver.MCPServer, sc *server.ServerContext, metrics *instrumentation.Metrics) {
	digestTool := mcp.NewTool("beacon_digest",
		mcp.WithDescription("Get the current email triage digest, ordered by priority score (highest first)"),
		mcp.WithString("category",
			mcp.Description("Filter by category: work, personal, finance, travel, newsletter, notification, promotion, other"),
		),
		mcp.WithNumber("minScore",
			mcp.Description("Only include messages with at least this priority score (0-100)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of messages to return (default: 50)"),
		),
	)

	s.AddTool(digestTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		args, _ := request.Params.Arguments.(map[string]interface{})

		opts, err := listOptionsFromArgs(args)
		if err != nil {
			metrics.RecordToolInvocation(ctx, "beacon_digest", instrumentation.StatusError, time.Since(start))
			return mcp.NewToolResultError(err.Error()), nil
		}

		results, err := sc.Store().ListTriage(ctx, opts)
		if err != nil {
			metrics.RecordToolInvocation(ctx, "beacon_digest", instrumentation.StatusError, time.Since(start))
			return mcp.NewToolResultError(fmt.Sprintf("Failed to load digest: %v", err)), nil
		}

		payload, _ := json.MarshalIndent(results, "", "  ")
		metrics.RecordToolInvocation(ctx, "beacon_digest", instrumentation.StatusSuccess, time.Since(start))
		return mcp.NewToolResultText(string(payload)), nil
	})
}

func registerMessageDetailTool(s *mcpserver.MCPServer, sc *server.ServerContext, metrics *instrumentation.Metrics) {
	detailTool := mcp.NewTool("beacon_message_detail",
		mcp.WithDescription("Get the full triage record for one message, including heuristic signals and action items"),
		mcp.WithString("fingerprint",
			mcp.Required(),
			mcp.Description("The message fingerprint, as returned by beacon_digest"),
		),
	)

	s.AddTool(detailTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		args, _ := request.Params.Arguments.(map[string]interface{})

		fingerprint, ok := args["fingerprint"].(string)
		if !ok || fingerprint == "" {
			metrics.RecordToolInvocation(ctx, "beacon_message_detail", instrumentation.StatusError, time.Since(start))
			return mcp.NewToolResultError("fingerprint is required"), nil
		}

		result, err := sc.Store().GetTriage(ctx, fingerprint)
		if errors.Is(err, store.ErrNotFound) {
			metrics.RecordToolInvocation(ctx, "beacon_message_detail", instrumentation.StatusError, time.Since(start))
			return mcp.NewToolResultError(fmt.Sprintf("No triage record for fingerprint %q", fingerprint)), nil
		}
		if err != nil {
			metrics.RecordToolInvocation(ctx, "beacon_message_detail", instrumentation.StatusError, time.Since(start))
			return mcp.NewToolResultError(fmt.Sprintf("Failed to load message: %v", err)), nil
		}

		payload, _ := json.MarshalIndent(result, "", "  ")
		metrics.RecordToolInvocation(ctx, "beacon_message_detail", instrumentation.StatusSuccess, time.Since(start))
		return mcp.NewToolResultText(string(payload)), nil
	})
}

func registerRefreshTool(s *mcpserver.MCPServer, sc *server.ServerContext, metrics *instrumentation.Metrics) {
	refreshTool := mcp.NewTool("beacon_refresh",
		mcp.WithDescription("Fetch and triage new mail now. Returns a summary of the run. May take a while when many messages are fresh."),
	)

	s.AddTool(refreshTool, func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		summary, err := sc.Refresh(ctx)
		if err != nil {
			metrics.RecordToolInvocation(ctx, "beacon_refresh", instrumentation.StatusError, time.Since(start))
			return mcp.NewToolResultError(fmt.Sprintf("Pipeline run failed: %v", err)), nil
		}

		payload, _ := json.MarshalIndent(summary, "", "  ")
		metrics.RecordToolInvocation(ctx, "beacon_refresh", instrumentation.StatusSuccess, time.Since(start))
		return mcp.NewToolResultText(string(payload)), nil
	})
}

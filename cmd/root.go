package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the beacon application
var rootCmd = &cobra.Command{
	Use:   "beacon",
	Short: "Email triage with heuristic and model-based analysis",
	Long: `beacon fetches your mail, scores every message with header and content
heuristics, summarizes and categorizes it with a language model, and turns
the result into a priority-ordered digest.

It can run as:
  - A one-shot CLI (default: fetch)
  - An HTTP server with a JSON API and digest page (serve)
  - An MCP (Model Context Protocol) server for AI assistants (serve --transport stdio)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "beacon version %s\n" .Version}}`)

	// If no subcommand is provided, run the fetch command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "fetch")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// Package cmd implements the beacon command line interface.
//
// The default command is fetch, which runs the triage pipeline once and
// prints a summary. The serve command starts the HTTP digest server or the
// MCP server for AI assistants, and auth handles the Google OAuth flow.
package cmd

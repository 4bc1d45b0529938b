// Package triage_tools registers the MCP tools exposing the triage
// service to AI agents: reading the digest, inspecting single messages,
// and triggering a refresh run.
package triage_tools

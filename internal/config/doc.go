// Package config loads and validates the beacon configuration file.
//
// Configuration lives in a single TOML file (~/.config/beacon/config.toml by
// default). Secrets are never stored in the file: the Gemini API key and the
// IMAP password are read from environment variables so the config file can
// be checked into dotfiles safely.
package config

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeRejectsUnknownTransport(t *testing.T) {
	cmd := newServeCmd()
	cmd.SetArgs([]string{"--transport", "carrier-pigeon"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}

func TestServeFlagDefaults(t *testing.T) {
	cmd := newServeCmd()

	transport, err := cmd.Flags().GetString("transport")
	require.NoError(t, err)
	assert.Equal(t, "http", transport)

	enabled, err := cmd.Flags().GetBool("metrics-enabled")
	require.NoError(t, err)
	assert.True(t, enabled)

	interval, err := cmd.Flags().GetDuration("refresh-interval")
	require.NoError(t, err)
	assert.Zero(t, interval)
}

func TestRootSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"fetch", "serve", "auth", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", rootCmd.Version)
	assert.Equal(t, "1.2.3", version)
}

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	opts, help, err := parseArgs([]string{"-c", "/etc/finbot.yaml"})
	require.NoError(t, err)
	assert.False(t, help)
	assert.Equal(t, "/etc/finbot.yaml", opts.Config)

	opts, _, err = parseArgs([]string{"--config=dev.yaml", "--version"})
	require.NoError(t, err)
	assert.Equal(t, "dev.yaml", opts.Config)
	assert.True(t, opts.Version)

	opts, _, err = parseArgs(nil)
	require.NoError(t, err)
	assert.Empty(t, opts.Config)
}

func TestParseArgsHelpAndUnknown(t *testing.T) {
	_, help, err := parseArgs([]string{"--help"})
	assert.Error(t, err)
	assert.True(t, help)

	_, help, err = parseArgs([]string{"--bogus"})
	assert.Error(t, err)
	assert.False(t, help)
}

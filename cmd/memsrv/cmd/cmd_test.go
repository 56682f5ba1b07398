package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmdRegistersSubcommands(t *testing.T) {
	root := NewRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["version"])
	assert.True(t, names["config"])
}

func TestVersionCommandPrintsShortVersion(t *testing.T) {
	root := NewRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetArgs([]string{"version", "--short"})
	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "dev")
}

func TestConfigCommandPrintsJSON(t *testing.T) {
	root := NewRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetArgs([]string{"config", "--json"})
	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "\"qdrant\"")
}

func TestServeCommandRejectsUnknownTransport(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"serve", "--transport", "bogus"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "auto", cfg.Format)
	assert.False(t, cfg.Quiet)
	assert.Equal(t, "matlab", cfg.Defaults.Command)
	assert.Contains(t, cfg.Defaults.Args, "-nodesktop")
	assert.True(t, cfg.Defaults.EchoesInput)
	assert.Equal(t, 4096, cfg.Defaults.BufferSize)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mdlink.yaml")
	content := `
format: ndjson
verbose: true
defaults:
  command: /opt/matlab/bin/matlab
  echoes_input: false
  plain_pattern: '^>> $'
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "ndjson", cfg.Format)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "/opt/matlab/bin/matlab", cfg.Defaults.Command)
	assert.False(t, cfg.Defaults.EchoesInput)
	assert.Equal(t, `^>> $`, cfg.Defaults.PlainPattern)

	// Unset fields keep their defaults.
	assert.Equal(t, 4096, cfg.Defaults.BufferSize)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadHonorsEnvironment(t *testing.T) {
	t.Setenv("MDLINK_FORMAT", "text")
	t.Setenv("MDLINK_COMMAND", "/usr/local/bin/matlab")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "/usr/local/bin/matlab", cfg.Defaults.Command)
}

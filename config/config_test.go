package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lookbusy1344/x86-symex/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, uint32(64), cfg.CPU.BitSize)
	assert.True(t, cfg.SymbolicState.EnableHashConsing)
}

func TestValidateRejectsBadBitSize(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.CPU.BitSize = 48
	require.Error(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.toml")
	contents := `
[cpu]
bit_size = 32

[dispatch]
abort_on_unknown_opcode = true
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(32), cfg.CPU.BitSize)
	assert.True(t, cfg.Dispatch.AbortOnUnknownOpcode)
	// Untouched sections keep their defaults.
	assert.True(t, cfg.SymbolicState.EnableHashConsing)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

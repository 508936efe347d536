// Package config loads session-wide parameters for the symbolic execution
// core from TOML.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the tunables a caller sets up before creating a session.
// Nothing here is mandatory to run the core — DefaultConfig() produces a
// usable configuration — but a caller embedding this module in a larger
// analysis framework typically wants to override at least CPU.BitSize.
type Config struct {
	// CPU settings: the session-wide mode the core operates polymorphically
	// over (§6).
	CPU struct {
		BitSize uint32 `toml:"bit_size"` // 16, 32, or 64
	} `toml:"cpu"`

	// SymbolicState tuning (§4.3).
	SymbolicState struct {
		InitialExpressionCapacity int  `toml:"initial_expression_capacity"`
		EnableHashConsing         bool `toml:"enable_hash_consing"`
	} `toml:"symbolic_state"`

	// Dispatch controls how the dispatcher (§4.7) treats an opcode it has
	// no handler for.
	Dispatch struct {
		AbortOnUnknownOpcode bool `toml:"abort_on_unknown_opcode"`
	} `toml:"dispatch"`
}

// DefaultConfig returns a configuration with default values: 64-bit mode,
// hash-consing on, unknown opcodes skipped with no symbolic or taint effect
// rather than reported as an error.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.CPU.BitSize = 64
	cfg.SymbolicState.InitialExpressionCapacity = 4096
	cfg.SymbolicState.EnableHashConsing = true
	cfg.Dispatch.AbortOnUnknownOpcode = false
	return cfg
}

// Validate checks the configuration is internally consistent, returning a
// descriptive error for the first violation found.
func (c *Config) Validate() error {
	switch c.CPU.BitSize {
	case 16, 32, 64:
	default:
		return fmt.Errorf("config: cpu.bit_size must be 16, 32, or 64, got %d", c.CPU.BitSize)
	}
	if c.SymbolicState.InitialExpressionCapacity < 0 {
		return fmt.Errorf("config: symbolic_state.initial_expression_capacity must be >= 0, got %d", c.SymbolicState.InitialExpressionCapacity)
	}
	return nil
}

// Load reads a TOML configuration file, filling in defaults for anything
// the file omits.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config: cannot read %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
